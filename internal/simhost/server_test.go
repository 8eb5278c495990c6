package simhost

import (
	"testing"

	"github.com/sanscraft/trappedtnt/internal/dispatcher"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *dispatcher.Dispatcher) {
	t.Helper()
	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	s := New(nil)
	s.SetDispatcher(d)
	s.AddWorld("world")
	return s, d
}

func TestRunLater(t *testing.T) {
	s, _ := newTestServer(t)

	var ran []core.Tick
	s.RunLater(1, func() { ran = append(ran, s.CurrentTick()) })
	s.RunLater(3, func() { ran = append(ran, s.CurrentTick()) })
	s.RunLater(0, func() {
		ran = append(ran, s.CurrentTick())
		s.RunLater(1, func() { ran = append(ran, s.CurrentTick()) })
	})

	s.AdvanceTo(5)

	assert.Equal(t, []core.Tick{1, 1, 2, 3}, ran)
	assert.Zero(t, s.PendingTasks())
}

func TestRunLater_SameTickKeepsScheduleOrder(t *testing.T) {
	s, _ := newTestServer(t)

	var order []string
	s.RunLater(2, func() { order = append(order, "a") })
	s.RunLater(2, func() { order = append(order, "b") })
	s.Advance(2)

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestTNT_ExplodesWhenFuseRunsOut(t *testing.T) {
	s, d := newTestServer(t)
	w, _ := s.World("world")

	var exploded []core.Tick
	d.Register(host.KindEntityExplode, func(e dispatcher.Event) error {
		exploded = append(exploded, e.Tick)
		return nil
	})

	tnt := w.SpawnTNT(core.Vec3{X: 0.5, Y: 64, Z: 0.5})
	tnt.SetFuseTicks(5)

	s.Advance(4)
	assert.Empty(t, exploded)
	assert.True(t, tnt.IsValid())

	s.Tick()
	assert.Equal(t, []core.Tick{5}, exploded)
	assert.False(t, tnt.IsValid())
	_, ok := s.TNT(tnt.ID())
	assert.False(t, ok)
}

func TestTNT_ZeroFuseExplodesSameTick(t *testing.T) {
	s, d := newTestServer(t)
	w, _ := s.World("world")
	tnt := w.SpawnTNT(core.Vec3{})

	var at core.Tick
	d.Register(host.KindEntityExplode, func(e dispatcher.Event) error { at = e.Tick; return nil })

	s.Advance(3)
	tnt.SetFuseTicks(0)
	s.Tick()

	assert.Equal(t, core.Tick(4), at)
}

func TestExplosion_DamagesNearbyPlayers(t *testing.T) {
	s, d := newTestServer(t)
	w, _ := s.World("world")
	near := s.AddPlayer("near", "world", core.Vec3{X: 2.5, Y: 64, Z: 0.5})
	blocker := s.AddPlayer("blocker", "world", core.Vec3{X: 0.5, Y: 64, Z: 2.5})
	blocker.SetBlocking(true)
	far := s.AddPlayer("far", "world", core.Vec3{X: 30, Y: 64, Z: 0})
	elsewhere := s.AddPlayer("elsewhere", "nether", core.Vec3{X: 0.5, Y: 64, Z: 0.5})

	var events []*host.EntityDamageByEntityEvent
	d.Register(host.KindEntityDamageByEntity, func(e dispatcher.Event) error {
		events = append(events, e.Payload.(*host.EntityDamageByEntityEvent))
		return nil
	})

	tnt := w.SpawnTNT(core.Vec3{X: 0.5, Y: 64, Z: 0.5})
	tnt.SetFuseTicks(1)
	s.Tick()

	require.Len(t, events, 2)
	assert.Equal(t, "blocker", events[0].Victim.(host.Player).Name())
	assert.Zero(t, events[0].Damage)
	assert.InDelta(t, 21.0, events[1].Damage, 1e-9)

	assert.InDelta(t, 21.0, near.DamageTaken(), 1e-9)
	assert.Zero(t, blocker.DamageTaken())
	assert.Zero(t, far.DamageTaken())
	assert.Zero(t, elsewhere.DamageTaken())
	assert.Zero(t, near.Health())
}

func TestExplosion_HandlerOverridesDamage(t *testing.T) {
	s, d := newTestServer(t)
	w, _ := s.World("world")
	p := s.AddPlayer("alex", "world", core.Vec3{X: 6.5, Y: 64, Z: 0.5})

	d.Register(host.KindEntityDamageByEntity, func(e dispatcher.Event) error {
		e.Payload.(*host.EntityDamageByEntityEvent).Damage = 3
		return nil
	})

	tnt := w.SpawnTNT(core.Vec3{X: 0.5, Y: 64, Z: 0.5})
	tnt.SetFuseTicks(1)
	s.Tick()

	assert.InDelta(t, 3.0, p.DamageTaken(), 1e-9)
}

func TestMovePlayer_DispatchesAndApplies(t *testing.T) {
	s, d := newTestServer(t)
	p := s.AddPlayer("alex", "world", core.Vec3{X: 0, Y: 64, Z: 0})

	var got *host.PlayerMoveEvent
	d.Register(host.KindPlayerMove, func(e dispatcher.Event) error {
		got = e.Payload.(*host.PlayerMoveEvent)
		return nil
	})

	s.MovePlayer(p, core.Vec3{X: 1, Y: 64, Z: 0})
	assert.Equal(t, core.Vec3{X: 0, Y: 64, Z: 0}, p.Location().Pos, "moves apply on the next tick")
	s.Tick()

	require.NotNil(t, got)
	assert.Equal(t, core.Vec3{X: 0, Y: 64, Z: 0}, got.From.Pos)
	assert.Equal(t, core.Vec3{X: 1, Y: 64, Z: 0}, got.To.Pos)
	assert.Equal(t, core.Vec3{X: 1, Y: 64, Z: 0}, p.Location().Pos)
}

func TestMovePlayer_Cancelled(t *testing.T) {
	s, d := newTestServer(t)
	p := s.AddPlayer("alex", "world", core.Vec3{})

	d.Register(host.KindPlayerMove, func(e dispatcher.Event) error {
		e.Payload.(host.Cancellable).SetCancelled(true)
		return nil
	})

	s.MovePlayer(p, core.Vec3{X: 5})
	s.Tick()

	assert.Equal(t, core.Vec3{}, p.Location().Pos)
}

func TestPlaceBlock(t *testing.T) {
	s, d := newTestServer(t)
	w, _ := s.World("world")
	p := s.AddPlayer("alex", "world", core.Vec3{})
	pos := core.BlockPos{X: 3, Y: 64, Z: 3}

	assert.True(t, s.PlaceBlock(p, core.NewItemStack(core.MaterialTNT, 1), pos))
	assert.Equal(t, core.MaterialTNT, w.BlockAt(pos))

	d.Register(host.KindBlockPlace, func(e dispatcher.Event) error {
		e.Payload.(host.Cancellable).SetCancelled(true)
		return nil
	})
	other := core.BlockPos{X: 4, Y: 64, Z: 3}
	assert.False(t, s.PlaceBlock(p, core.NewItemStack(core.MaterialStone, 1), other))
	assert.Equal(t, core.MaterialAir, w.BlockAt(other))
}

func TestRemoveEntity(t *testing.T) {
	s, d := newTestServer(t)
	w, _ := s.World("world")
	exploded := false
	d.Register(host.KindEntityExplode, func(dispatcher.Event) error { exploded = true; return nil })

	tnt := w.SpawnTNT(core.Vec3{})
	require.True(t, s.RemoveEntity(tnt.ID()))
	assert.False(t, s.RemoveEntity(tnt.ID()))
	s.Advance(100)

	assert.False(t, exploded)
	assert.Empty(t, s.LiveTNT())
}

func TestPlayers(t *testing.T) {
	s, _ := newTestServer(t)
	a := s.AddPlayer("alex", "world", core.Vec3{})
	s.AddPlayer("sam", "world", core.Vec3{})

	got, ok := s.Player("alex")
	require.True(t, ok)
	assert.Equal(t, a.UniqueID(), got.UniqueID())
	assert.Len(t, s.OnlinePlayers(), 2)

	a.Disconnect()
	_, ok = s.Player("alex")
	assert.False(t, ok)
	assert.Len(t, s.OnlinePlayers(), 1)
	_, ok = s.World("missing")
	assert.False(t, ok)
}

func TestPermissions(t *testing.T) {
	s, _ := newTestServer(t)
	p := s.AddPlayer("alex", "world", core.Vec3{})

	assert.False(t, p.HasPermission("trappedtnt.give"))
	p.Grant("trappedtnt.give")
	assert.True(t, p.HasPermission("trappedtnt.give"))
	assert.False(t, p.HasPermission("trappedtnt.admin"))
	p.SetOp(true)
	assert.True(t, p.HasPermission("trappedtnt.admin"))
	assert.True(t, s.Console().HasPermission("anything"))
}
