// Package simhost is a deterministic, single-threaded game server implementing
// the host surface. It drives the plugin in tests and in the demo console.
//
// Each call to Tick advances the clock by one and then, in order, runs due
// scheduled tasks, applies queued player moves and counts down TNT fuses.
package simhost

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sanscraft/trappedtnt/internal/blast"
	"github.com/sanscraft/trappedtnt/internal/dispatcher"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
)

// Defaults for spawned TNT, matching vanilla primed TNT.
const (
	DefaultFuseTicks = 80
	DefaultYield     = 4.0
)

// TickInterval is the real-time length of one tick at 20 ticks per second.
const TickInterval = 50 * time.Millisecond

// Dispatcher receives host events.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) error
}

type task struct {
	due core.Tick
	seq uint64
	fn  func()
}

type move struct {
	player *Player
	to     core.Vec3
}

// Server is the simulated host.
type Server struct {
	tick    core.Tick
	seq     uint64
	tasks   []task
	moves   []move
	nextID  core.EntityID
	worlds  map[string]*World
	players map[string]*Player
	order   []string
	tnt     map[core.EntityID]*TNT
	spawned []core.EntityID

	dispatcher Dispatcher
	logger     *slog.Logger
	console    *Console
}

// New creates an empty server at tick 0.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		worlds:  make(map[string]*World),
		players: make(map[string]*Player),
		tnt:     make(map[core.EntityID]*TNT),
		logger:  logger,
		console: &Console{},
	}
}

// SetDispatcher routes host events to d.
func (s *Server) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// Console returns the server console command sender.
func (s *Server) Console() *Console {
	return s.console
}

// CurrentTick returns the current tick.
func (s *Server) CurrentTick() core.Tick {
	return s.tick
}

// RunLater schedules task to run delay ticks from now. Tasks never run on the tick they are scheduled.
func (s *Server) RunLater(delay core.Tick, fn func()) {
	if delay < 1 {
		delay = 1
	}
	s.seq++
	s.tasks = append(s.tasks, task{due: s.tick + delay, seq: s.seq, fn: fn})
}

// PendingTasks returns the number of scheduled tasks that have not run yet.
func (s *Server) PendingTasks() int {
	return len(s.tasks)
}

// AddWorld creates a world, or returns the existing one.
func (s *Server) AddWorld(name string) *World {
	if w, ok := s.worlds[name]; ok {
		return w
	}
	w := &World{name: name, server: s, blocks: make(map[core.BlockPos]core.Material)}
	s.worlds[name] = w
	return w
}

// World returns a world by name.
func (s *Server) World(name string) (host.World, bool) {
	w, ok := s.worlds[name]
	if !ok {
		return nil, false
	}
	return w, true
}

// AddPlayer connects a player standing at pos in world. The world is created if needed.
func (s *Server) AddPlayer(name, world string, pos core.Vec3) *Player {
	s.AddWorld(world)
	s.nextID++
	p := &Player{
		id:          s.nextID,
		uuid:        core.PlayerID(fmt.Sprintf("00000000-0000-0000-0000-%012d", s.nextID)),
		name:        name,
		server:      s,
		world:       world,
		pos:         pos,
		health:      MaxHealth,
		online:      true,
		permissions: make(map[string]bool),
		inventory:   &Inventory{},
	}
	s.players[name] = p
	s.order = append(s.order, name)
	return p
}

// Player returns an online player by name.
func (s *Server) Player(name string) (host.Player, bool) {
	p, ok := s.players[name]
	if !ok || !p.online {
		return nil, false
	}
	return p, true
}

// SimPlayer returns the concrete player by name.
func (s *Server) SimPlayer(name string) (*Player, bool) {
	p, ok := s.players[name]
	return p, ok
}

// OnlinePlayers returns online players in join order.
func (s *Server) OnlinePlayers() []host.Player {
	out := make([]host.Player, 0, len(s.order))
	for _, name := range s.order {
		if p := s.players[name]; p.online {
			out = append(out, p)
		}
	}
	return out
}

// TNT resolves a live TNT entity.
func (s *Server) TNT(id core.EntityID) (host.TNT, bool) {
	t, ok := s.tnt[id]
	if !ok {
		return nil, false
	}
	return t, true
}

// RemoveEntity despawns a TNT entity without an explosion.
func (s *Server) RemoveEntity(id core.EntityID) bool {
	t, ok := s.tnt[id]
	if !ok {
		return false
	}
	s.remove(t)
	return true
}

// LiveTNT returns the ids of all TNT entities still in the world, in spawn order.
func (s *Server) LiveTNT() []core.EntityID {
	out := make([]core.EntityID, 0, len(s.spawned))
	for _, id := range s.spawned {
		if _, ok := s.tnt[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// MovePlayer queues a move to be applied on the next tick.
func (s *Server) MovePlayer(p *Player, to core.Vec3) {
	s.moves = append(s.moves, move{player: p, to: to})
}

// PlaceBlock has p place item at pos. It reports whether the placement stuck.
func (s *Server) PlaceBlock(p *Player, item core.ItemStack, pos core.BlockPos) bool {
	loc := core.BlockLocation{World: p.world, Pos: pos}
	ev := &host.BlockPlaceEvent{Player: p, Item: item.Clone(), Block: loc}
	s.dispatch(host.KindBlockPlace, ev)
	if ev.IsCancelled() {
		return false
	}
	s.worlds[p.world].SetBlock(pos, item.Material)
	return true
}

// Tick advances the simulation by one tick.
func (s *Server) Tick() {
	s.tick++
	s.runDueTasks()
	s.applyMoves()
	s.tickTNT()
}

// Advance runs n ticks.
func (s *Server) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// AdvanceTo runs ticks until the clock reads t.
func (s *Server) AdvanceTo(t core.Tick) {
	for s.tick < t {
		s.Tick()
	}
}

func (s *Server) runDueTasks() {
	for {
		var due []task
		rest := s.tasks[:0]
		for _, t := range s.tasks {
			if t.due <= s.tick {
				due = append(due, t)
			} else {
				rest = append(rest, t)
			}
		}
		s.tasks = rest
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].due != due[j].due {
				return due[i].due < due[j].due
			}
			return due[i].seq < due[j].seq
		})
		for _, t := range due {
			t.fn()
		}
	}
}

func (s *Server) applyMoves() {
	moves := s.moves
	s.moves = nil
	for _, m := range moves {
		if !m.player.online {
			continue
		}
		from := m.player.Location()
		to := core.Location{World: from.World, Pos: m.to}
		ev := &host.PlayerMoveEvent{Player: m.player, From: from, To: to}
		s.dispatch(host.KindPlayerMove, ev)
		if !ev.IsCancelled() {
			m.player.pos = m.to
		}
	}
}

func (s *Server) tickTNT() {
	for _, id := range s.LiveTNT() {
		t, ok := s.tnt[id]
		if !ok {
			continue
		}
		t.fuse--
		if t.fuse <= 0 {
			s.explode(t)
		}
	}
}

func (s *Server) explode(t *TNT) {
	origin := t.Location()
	ev := &host.EntityExplodeEvent{Entity: t, Location: origin, Yield: t.yield}
	s.dispatch(host.KindEntityExplode, ev)

	if !ev.IsCancelled() {
		w := s.worlds[origin.World]
		for _, p := range w.nearby(origin.Pos, blast.MaxDistance(t.yield)) {
			dmg := blast.RawDamage(p.pos.Distance(origin.Pos), t.yield)
			if p.blocking {
				dmg = 0
			}
			dev := &host.EntityDamageByEntityEvent{Damager: t, Victim: p, Damage: dmg}
			s.dispatch(host.KindEntityDamageByEntity, dev)
			if !dev.IsCancelled() && dev.Damage > 0 {
				p.Damage(dev.Damage)
			}
		}
	}

	s.remove(t)
}

func (s *Server) remove(t *TNT) {
	t.valid = false
	delete(s.tnt, t.id)
}

func (s *Server) spawnTNT(world string, at core.Vec3) *TNT {
	s.nextID++
	t := &TNT{
		id:       s.nextID,
		world:    world,
		pos:      at,
		fuse:     DefaultFuseTicks,
		yield:    DefaultYield,
		valid:    true,
		metadata: make(map[string]any),
	}
	s.tnt[t.id] = t
	s.spawned = append(s.spawned, t.id)
	return t
}

func (s *Server) dispatch(kind string, payload any) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Dispatch(dispatcher.Event{Kind: kind, Tick: s.tick, Payload: payload})
	if err != nil {
		s.logger.Warn("Event handler failed", "kind", kind, "tick", int64(s.tick), "error", err)
	}
}
