package simhost

import (
	"sort"

	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
)

// MaxHealth is a fresh player's health.
const MaxHealth = 20.0

// World is a simulated world.
type World struct {
	name   string
	server *Server
	blocks map[core.BlockPos]core.Material
}

// Name returns the world name.
func (w *World) Name() string { return w.name }

// BlockAt returns the block at pos. Unset blocks are air.
func (w *World) BlockAt(pos core.BlockPos) core.Material {
	if m, ok := w.blocks[pos]; ok {
		return m
	}
	return core.MaterialAir
}

// SetBlock changes the block at pos.
func (w *World) SetBlock(pos core.BlockPos, m core.Material) {
	if m == core.MaterialAir || m == "" {
		delete(w.blocks, pos)
		return
	}
	w.blocks[pos] = m
}

// SpawnTNT spawns a primed TNT entity with the default fuse.
func (w *World) SpawnTNT(at core.Vec3) host.TNT {
	return w.server.spawnTNT(w.name, at)
}

// NearbyPlayers returns online players in this world within radius of center, ordered by name.
func (w *World) NearbyPlayers(center core.Vec3, radius float64) []host.Player {
	nearby := w.nearby(center, radius)
	out := make([]host.Player, len(nearby))
	for i, p := range nearby {
		out[i] = p
	}
	return out
}

func (w *World) nearby(center core.Vec3, radius float64) []*Player {
	var out []*Player
	for _, p := range w.server.players {
		if !p.online || p.world != w.name {
			continue
		}
		if p.pos.Distance(center) <= radius {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// TNT is a primed explosive.
type TNT struct {
	id       core.EntityID
	world    string
	pos      core.Vec3
	fuse     int
	yield    float64
	valid    bool
	metadata map[string]any
}

func (t *TNT) ID() core.EntityID { return t.id }

func (t *TNT) Location() core.Location {
	return core.Location{World: t.world, Pos: t.pos}
}

func (t *TNT) IsValid() bool { return t.valid }

func (t *TNT) FuseTicks() int { return t.fuse }

func (t *TNT) SetFuseTicks(ticks int) { t.fuse = ticks }

func (t *TNT) SetMetadata(key string, value any) { t.metadata[key] = value }

func (t *TNT) Metadata(key string) (any, bool) {
	v, ok := t.metadata[key]
	return v, ok
}

// Yield is the explosion power of this entity.
func (t *TNT) Yield() float64 { return t.yield }

// SetYield changes the explosion power.
func (t *TNT) SetYield(y float64) { t.yield = y }

// Teleport moves the entity, as knockback from another explosion would.
func (t *TNT) Teleport(to core.Vec3) { t.pos = to }

// Inventory holds two hands and a bag of other items.
type Inventory struct {
	main     core.ItemStack
	off      core.ItemStack
	contents []core.ItemStack
}

func (i *Inventory) MainHand() core.ItemStack { return i.main }

func (i *Inventory) OffHand() core.ItemStack { return i.off }

func (i *Inventory) SetMainHand(item core.ItemStack) { i.main = item }

func (i *Inventory) SetOffHand(item core.ItemStack) { i.off = item }

// AddItem stores item in the bag.
func (i *Inventory) AddItem(item core.ItemStack) {
	i.contents = append(i.contents, item.Clone())
}

// Contents returns the bag, excluding both hands.
func (i *Inventory) Contents() []core.ItemStack {
	return append([]core.ItemStack(nil), i.contents...)
}

// Player is a simulated player.
type Player struct {
	id          core.EntityID
	uuid        core.PlayerID
	name        string
	server      *Server
	world       string
	pos         core.Vec3
	velocity    core.Vec3
	health      float64
	damageTaken float64
	blocking    bool
	online      bool
	op          bool
	permissions map[string]bool
	inventory   *Inventory
	messages    []string
}

func (p *Player) ID() core.EntityID { return p.id }

func (p *Player) Location() core.Location {
	return core.Location{World: p.world, Pos: p.pos}
}

func (p *Player) IsValid() bool { return p.online }

func (p *Player) Name() string { return p.name }

func (p *Player) SendMessage(msg string) { p.messages = append(p.messages, msg) }

func (p *Player) HasPermission(node string) bool { return p.op || p.permissions[node] }

func (p *Player) UniqueID() core.PlayerID { return p.uuid }

func (p *Player) IsBlocking() bool { return p.blocking }

func (p *Player) Inventory() host.Inventory { return p.inventory }

func (p *Player) Velocity() core.Vec3 { return p.velocity }

func (p *Player) SetVelocity(v core.Vec3) { p.velocity = v }

// Damage lowers health, never below zero, and tracks the total taken.
func (p *Player) Damage(amount float64) {
	if amount <= 0 {
		return
	}
	p.damageTaken += amount
	p.health -= amount
	if p.health < 0 {
		p.health = 0
	}
}

// Health returns the remaining health.
func (p *Player) Health() float64 { return p.health }

// DamageTaken returns the total damage applied since joining.
func (p *Player) DamageTaken() float64 { return p.damageTaken }

// SetBlocking raises or lowers the player's shield.
func (p *Player) SetBlocking(b bool) { p.blocking = b }

// SetOp grants every permission.
func (p *Player) SetOp(op bool) { p.op = op }

// Grant gives the player a permission node.
func (p *Player) Grant(node string) { p.permissions[node] = true }

// Teleport moves the player immediately without a move event.
func (p *Player) Teleport(world string, pos core.Vec3) {
	p.server.AddWorld(world)
	p.world = world
	p.pos = pos
}

// Disconnect takes the player offline.
func (p *Player) Disconnect() { p.online = false }

// SimInventory returns the concrete inventory.
func (p *Player) SimInventory() *Inventory { return p.inventory }

// Messages returns every chat message sent to the player.
func (p *Player) Messages() []string {
	return append([]string(nil), p.messages...)
}

// Console is the server console. It holds every permission.
type Console struct {
	messages []string
}

func (c *Console) Name() string { return "CONSOLE" }

func (c *Console) SendMessage(msg string) { c.messages = append(c.messages, msg) }

func (c *Console) HasPermission(string) bool { return true }

// Messages returns every message sent to the console.
func (c *Console) Messages() []string {
	return append([]string(nil), c.messages...)
}

var (
	_ host.Server        = (*Server)(nil)
	_ host.World         = (*World)(nil)
	_ host.TNT           = (*TNT)(nil)
	_ host.Player        = (*Player)(nil)
	_ host.Inventory     = (*Inventory)(nil)
	_ host.CommandSender = (*Console)(nil)
)
