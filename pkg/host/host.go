// Package host defines the surface of the game server the plugin runs inside.
// The plugin only reacts to events delivered through it and issues commands back
// into it; it never owns host entities.
package host

import "github.com/sanscraft/trappedtnt/pkg/core"

// Scheduler runs deferred work on the server's tick loop.
// Tasks run on the same logical thread as event callbacks and cannot be cancelled.
type Scheduler interface {
	CurrentTick() core.Tick
	RunLater(delay core.Tick, task func())
}

// Entity is a handle to something the host simulates.
type Entity interface {
	ID() core.EntityID
	Location() core.Location
	// IsValid is false once the entity died or was removed from its world.
	IsValid() bool
}

// TNT is a primed explosive entity.
type TNT interface {
	Entity
	FuseTicks() int
	SetFuseTicks(ticks int)
	SetMetadata(key string, value any)
	Metadata(key string) (any, bool)
}

// Inventory is a player's item storage.
type Inventory interface {
	MainHand() core.ItemStack
	OffHand() core.ItemStack
	SetMainHand(item core.ItemStack)
	SetOffHand(item core.ItemStack)
	AddItem(item core.ItemStack)
}

// CommandSender is anything that can run a command: a player or the console.
type CommandSender interface {
	Name() string
	SendMessage(msg string)
	HasPermission(node string) bool
}

// Player is an online player.
type Player interface {
	Entity
	CommandSender
	UniqueID() core.PlayerID
	// IsBlocking reports whether the player is actively raising a shield.
	IsBlocking() bool
	Inventory() Inventory
	Velocity() core.Vec3
	SetVelocity(v core.Vec3)
	// Damage applies damage without an attributed source.
	Damage(amount float64)
}

// World is one loaded world.
type World interface {
	Name() string
	BlockAt(pos core.BlockPos) core.Material
	SetBlock(pos core.BlockPos, material core.Material)
	SpawnTNT(at core.Vec3) TNT
	NearbyPlayers(center core.Vec3, radius float64) []Player
}

// Server is the root of the host API.
type Server interface {
	Scheduler
	World(name string) (World, bool)
	Player(name string) (Player, bool)
	OnlinePlayers() []Player
	// TNT resolves a weak entity handle. ok is false when the host no longer knows the id.
	TNT(id core.EntityID) (TNT, bool)
}

// HasShield reports whether either hand holds a shield.
func HasShield(inv Inventory) bool {
	if inv == nil {
		return false
	}
	return inv.MainHand().Material == core.MaterialShield || inv.OffHand().Material == core.MaterialShield
}
