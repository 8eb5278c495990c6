package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/dispatcher"
	"github.com/sanscraft/trappedtnt/internal/itemtag"
	"github.com/sanscraft/trappedtnt/internal/registry"
	"github.com/sanscraft/trappedtnt/internal/simhost"
	"github.com/sanscraft/trappedtnt/internal/storage"
	"github.com/sanscraft/trappedtnt/internal/storage/memory"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type plugin struct {
	server   *simhost.Server
	registry *registry.Registry
	journal  *memory.Backend
	service  *Service
	logs     *bytes.Buffer
	settings config.Trap
	zones    config.ZoneConfig
}

func newPlugin(t *testing.T) *plugin {
	t.Helper()

	p := &plugin{
		server:   simhost.New(nil),
		registry: registry.New(),
		journal:  memory.New(),
		logs:     &bytes.Buffer{},
		settings: config.Trap{
			FuseTicks:                 80,
			InstantExplosionOnContact: true,
			BypassShields:             true,
			ExplosionPower:            4.0,
			ShieldDamageMultiplier:    3.0,
			DamageThreshold:           1.0,
		},
	}
	p.server.AddWorld("world")

	logger := slog.New(slog.NewTextHandler(p.logs, nil))
	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	p.server.SetDispatcher(d)

	journal := storage.NewJournal(logger, p.journal)
	journal.SetTickSource(p.server.CurrentTick)

	p.service, err = NewService(Dependencies{
		Server:     p.server,
		Dispatcher: d,
		Registry:   p.registry,
		Events:     journal,
		Closers:    []io.Closer{p.journal},
		Logger:     logger,
		Version:    "1.0.0",
		Settings:   func() config.Trap { return p.settings },
		Zones:      func() (config.ZoneConfig, error) { return p.zones, nil },
		Reload:     func() error { return nil },
		Message:    func(key string) string { return config.DefaultMessages[key] },
	})
	require.NoError(t, err)
	return p
}

var trapBlock = core.BlockLocation{World: "world", Pos: core.BlockPos{X: 0, Y: 64, Z: 0}}

func (p *plugin) armAtZero(t *testing.T) core.TrapRecord {
	t.Helper()
	placer := p.server.AddPlayer("placer", "world", core.Vec3{X: 60, Y: 64, Z: 60})
	rec, err := p.service.Coordinator().Arm(trapBlock, placer)
	require.NoError(t, err)
	return rec
}

func (p *plugin) kinds() []core.TrapEventKind {
	events, _ := p.journal.Events()
	out := make([]core.TrapEventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestNewService_RequiresCoreDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}

func TestEnable_LogsZoneAvailability(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())

	assert.True(t, p.service.Enabled())
	assert.False(t, p.service.Authorizer().Available())
	assert.Contains(t, p.logs.String(), "Zone service not found")
	assert.Contains(t, p.logs.String(), "TrappedTnt enabled")

	p2 := newPlugin(t)
	p2.zones = config.ZoneConfig{
		AllowedRegions: []string{"arena"},
		Definitions: []config.ZoneDefinition{
			{Name: "arena", World: "world", Polygon: "POLYGON((0 0,10 0,10 10,0 10,0 0))"},
		},
	}
	require.NoError(t, p2.service.Enable())
	assert.True(t, p2.service.Authorizer().Available())
	assert.Contains(t, p2.logs.String(), "Zone service found")
}

func TestEnable_Twice(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	first := p.service.Coordinator()
	require.NoError(t, p.service.Enable())
	assert.Same(t, first, p.service.Coordinator())
}

// Scenario A: a player walking into a trap detonates it on that tick.
func TestScenario_ProximityDetonation(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	rec := p.armAtZero(t)
	walker := p.server.AddPlayer("walker", "world", core.Vec3{X: 6, Y: 64, Z: 0.5})

	p.server.AdvanceTo(9)
	p.server.MovePlayer(walker, core.Vec3{X: 1.2, Y: 64, Z: 0.5})
	p.server.Tick()

	assert.Equal(t, core.Tick(10), p.server.CurrentTick())
	_, alive := p.server.TNT(rec.Entity)
	assert.False(t, alive)
	_, tracked := p.registry.Get(rec.Entity)
	assert.False(t, tracked)
	assert.Equal(t, []core.TrapEventKind{core.EventArmed, core.EventTriggered, core.EventDetonated}, p.kinds())
	assert.Greater(t, walker.DamageTaken(), 0.0)
}

// Scenario B: a raised shield at two blocks takes the penalty damage.
func TestScenario_ShieldPenalty(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	p.armAtZero(t)
	victim := p.server.AddPlayer("victim", "world", core.Vec3{X: 2.5, Y: 64, Z: 0.5})
	victim.SimInventory().SetOffHand(core.NewItemStack(core.MaterialShield, 1))
	victim.SetBlocking(true)

	p.server.AdvanceTo(80)

	assert.InDelta(t, 60.3, victim.DamageTaken(), 1e-9)
	assert.Zero(t, victim.Health())
	assert.Equal(t, 1, p.journal.Count(core.EventDamageOverridden))
}

// Scenario C: the cleanup task of a trap that already went off does nothing.
func TestScenario_CleanupAfterDetonation(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	rec := p.armAtZero(t)
	walker := p.server.AddPlayer("walker", "world", core.Vec3{X: 6, Y: 64, Z: 0.5})

	p.server.AdvanceTo(9)
	p.server.MovePlayer(walker, core.Vec3{X: 1, Y: 64, Z: 0.5})
	p.server.Tick()
	damage := walker.DamageTaken()
	logged := p.logs.Len()

	p.server.AdvanceTo(85)

	assert.Equal(t, []core.TrapEventKind{core.EventArmed, core.EventTriggered, core.EventDetonated}, p.kinds())
	assert.Equal(t, damage, walker.DamageTaken())
	assert.Equal(t, logged, p.logs.Len())
	_, tracked := p.registry.Get(rec.Entity)
	assert.False(t, tracked)
	assert.Zero(t, p.server.PendingTasks())
}

func TestCancelledPlacementIsIgnored(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	// a protection plugin vetoes every placement before the trap handler runs
	d := p.service.deps.Dispatcher
	d.Register(host.KindBlockPlace, func(e dispatcher.Event) error {
		e.Payload.(host.Cancellable).SetCancelled(true)
		return nil
	}, dispatcher.Priority(dispatcher.PriorityLow))

	placer := p.server.AddPlayer("placer", "world", core.Vec3{})
	placed := p.server.PlaceBlock(placer, itemtag.New().Create(1), trapBlock.Pos)
	p.server.Advance(2)

	assert.False(t, placed)
	assert.Zero(t, p.registry.Len())
	assert.Empty(t, placer.Messages())
}

func TestDisable(t *testing.T) {
	p := newPlugin(t)
	closed := 0
	p.service.deps.Closers = append(p.service.deps.Closers, closerFunc(func() error {
		closed++
		return nil
	}))
	require.NoError(t, p.service.Enable())
	p.armAtZero(t)
	p.server.Advance(1)
	require.Equal(t, 1, p.journal.Count(core.EventArmed))

	require.NoError(t, p.service.Disable())

	assert.False(t, p.service.Enabled())
	assert.Zero(t, p.registry.Len())
	assert.Equal(t, 1, closed)
	assert.Zero(t, p.journal.Count(core.EventArmed), "memory journal is cleared on close")
	assert.False(t, p.service.Command(p.server.Console(), nil))
	assert.Nil(t, p.service.Complete(p.server.Console(), []string{""}))

	// no handlers left, the orphaned entity explodes without any bookkeeping
	p.server.AdvanceTo(90)
	assert.Empty(t, p.kinds())

	require.NoError(t, p.service.Disable())
	assert.Equal(t, 1, closed)
}

func TestDisable_DropsPendingArm(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())

	placer := p.server.AddPlayer("placer", "world", core.Vec3{X: 60, Y: 64, Z: 60})
	require.True(t, p.server.PlaceBlock(placer, itemtag.New().Create(1), trapBlock.Pos))
	require.NoError(t, p.service.Disable())

	p.server.Advance(1)

	assert.Zero(t, p.registry.Len())
	assert.Empty(t, p.server.LiveTNT())
	assert.Empty(t, p.kinds())
	assert.True(t, p.service.Coordinator().Stopped())
}

func TestDisable_JoinsCloseErrors(t *testing.T) {
	p := newPlugin(t)
	boom := errors.New("boom")
	p.service.deps.Closers = []io.Closer{
		closerFunc(func() error { return boom }),
		nil,
		closerFunc(func() error { return nil }),
	}
	require.NoError(t, p.service.Enable())

	err := p.service.Disable()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, p.logs.String(), "Errors while shutting down")
}

func TestCommandRoutesThroughService(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	steve := p.server.AddPlayer("steve", "world", core.Vec3{})
	console := p.server.Console()

	assert.True(t, p.service.Command(console, []string{"give", "steve", "2"}))
	assert.Len(t, steve.SimInventory().Contents(), 1)
	assert.Equal(t, []string{"help", "reload", "give"}, p.service.Complete(console, []string{""}))
}

func TestReload_RebuildsZones(t *testing.T) {
	p := newPlugin(t)
	require.NoError(t, p.service.Enable())
	placer := p.server.AddPlayer("placer", "world", core.Vec3{})
	tagger := itemtag.New()

	p.zones = config.ZoneConfig{
		AllowedRegions: []string{"arena"},
		Definitions: []config.ZoneDefinition{
			{Name: "arena", World: "world", Polygon: "POLYGON((100 100,110 100,110 110,100 110,100 100))"},
		},
	}
	require.NoError(t, p.service.Reload())
	assert.True(t, p.service.Authorizer().Available())

	assert.False(t, p.server.PlaceBlock(placer, tagger.Create(1), trapBlock.Pos))
	assert.True(t, p.server.PlaceBlock(placer, tagger.Create(1), core.BlockPos{X: 105, Y: 64, Z: 105}))

	p.zones = config.ZoneConfig{}
	require.NoError(t, p.service.Reload())
	assert.False(t, p.service.Authorizer().Available())
	assert.True(t, p.server.PlaceBlock(placer, tagger.Create(1), trapBlock.Pos))
}

func TestReload_Failure(t *testing.T) {
	p := newPlugin(t)
	boom := errors.New("unreadable")
	p.service.deps.Reload = func() error { return boom }
	require.NoError(t, p.service.Enable())

	assert.ErrorIs(t, p.service.Reload(), boom)
}

func TestService_WithViperConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	write := func(body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigName+".yml"), []byte(body), 0o644))
	}
	write("trapped-tnt:\n  fuse-timer: 40\n")
	require.NoError(t, config.Load(dir))

	server := simhost.New(nil)
	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	server.SetDispatcher(d)
	reg := registry.New()
	svc, err := NewService(Dependencies{Server: server, Dispatcher: d, Registry: reg})
	require.NoError(t, err)
	require.NoError(t, svc.Enable())

	placer := server.AddPlayer("placer", "world", core.Vec3{X: 50, Y: 64, Z: 50})
	rec, err := svc.Coordinator().Arm(trapBlock, placer)
	require.NoError(t, err)
	assert.Equal(t, 40, rec.FuseTicks)

	write("trapped-tnt:\n  fuse-timer: 20\n")
	console := server.Console()
	require.True(t, svc.Command(console, []string{"reload"}))
	assert.Contains(t, console.Messages()[0], "configuration reloaded")

	rec, err = svc.Coordinator().Arm(core.BlockLocation{World: "world", Pos: core.BlockPos{X: 5, Y: 64, Z: 5}}, placer)
	require.NoError(t, err)
	assert.Equal(t, 20, rec.FuseTicks)
}
