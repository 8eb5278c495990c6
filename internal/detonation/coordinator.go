// Package detonation drives a trap from placement to explosion and adjusts the
// damage its blast deals to players.
package detonation

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/itemtag"
	"github.com/sanscraft/trappedtnt/internal/registry"
	"github.com/sanscraft/trappedtnt/internal/util"
	"github.com/sanscraft/trappedtnt/internal/zone"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Entity metadata keys set on armed TNT.
const (
	MetaTrappedTNT = "trapped_tnt"
	MetaPlacer     = "placer"
)

// Extra ticks after the fuse before an unexploded trap is forgotten.
const expiryGrace = 5

// Detonation causes.
const (
	CauseFuse      = "fuse"
	CauseProximity = "proximity"
)

// EventSink receives journal entries.
type EventSink interface {
	Append(e core.TrapEvent)
}

// Dependencies holds everything the Coordinator needs.
type Dependencies struct {
	Server     host.Server
	Registry   *registry.Registry
	Authorizer *zone.Authorizer
	Tagger     *itemtag.Tagger
	Settings   func() config.Trap
	// AllowedZones lists the zones traps may be armed in. Empty allows everywhere.
	AllowedZones func() []string
	// Message returns the raw chat template for a message key.
	Message func(key string) string
	Logger  *slog.Logger
	Events  EventSink
}

// Coordinator owns the trap lifecycle.
type Coordinator struct {
	deps    Dependencies
	stopped atomic.Bool

	armed      metric.Int64Counter
	detonated  metric.Int64Counter
	overridden metric.Int64Counter
}

// New creates a Coordinator.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(deps Dependencies) (*Coordinator, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Message == nil {
		deps.Message = config.Message
	}
	if deps.AllowedZones == nil {
		deps.AllowedZones = func() []string { return nil }
	}

	c := &Coordinator{deps: deps}
	m := meter()

	var err error

	c.armed, err = m.Int64Counter(
		"trap.armed",
		metric.WithDescription("Total traps armed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating armed counter: %w", err)
	}

	c.detonated, err = m.Int64Counter(
		"trap.detonated",
		metric.WithDescription("Total trap explosions handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating detonated counter: %w", err)
	}

	c.overridden, err = m.Int64Counter(
		"trap.damage.overridden",
		metric.WithDescription("Total shield-blocked hits replaced by penalty damage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating overridden counter: %w", err)
	}

	return c, nil
}

// HandleBlockPlace arms a trap one tick after a trap item was placed.
func (c *Coordinator) HandleBlockPlace(ev *host.BlockPlaceEvent) {
	if ev.IsCancelled() {
		return
	}
	item := ev.Item
	if !c.deps.Tagger.IsTagged(&item) {
		return
	}

	player := ev.Player
	loc := ev.Block

	if !c.deps.Authorizer.CanArm(loc, c.deps.AllowedZones()) {
		ev.SetCancelled(true)
		c.send(player, config.MsgRegionNotAllowed, nil)
		c.journal(core.TrapEvent{
			Kind:     core.EventPlacementDenied,
			Player:   player.UniqueID(),
			World:    loc.World,
			Position: loc.Pos.Corner(),
		})
		return
	}

	// let the host finish or veto the placement first
	c.later(1, func() {
		w, ok := c.deps.Server.World(loc.World)
		if !ok || w.BlockAt(loc.Pos) != core.MaterialTNT {
			return
		}
		if _, err := c.Arm(loc, player); err != nil {
			c.deps.Logger.Warn("Failed to arm trapped TNT", "location", loc.String(), "error", err)
		}
	})

	c.send(player, config.MsgTrappedTntPlaced, nil)
}

// Arm replaces the block at loc with a primed trap and starts tracking it.
func (c *Coordinator) Arm(loc core.BlockLocation, placer host.Player) (core.TrapRecord, error) {
	w, ok := c.deps.Server.World(loc.World)
	if !ok {
		return core.TrapRecord{}, fmt.Errorf("unknown world %q", loc.World)
	}
	settings := c.deps.Settings()

	w.SetBlock(loc.Pos, core.MaterialAir)
	tnt := w.SpawnTNT(loc.Pos.Center())
	tnt.SetFuseTicks(settings.FuseTicks)
	tnt.SetMetadata(MetaTrappedTNT, true)
	tnt.SetMetadata(MetaPlacer, string(placer.UniqueID()))

	rec := core.TrapRecord{
		Location:  loc,
		Entity:    tnt.ID(),
		Placer:    placer.UniqueID(),
		FuseTicks: settings.FuseTicks,
		ArmedAt:   c.deps.Server.CurrentTick(),
		State:     core.TrapArmed,
	}
	if err := c.deps.Registry.Register(rec); err != nil {
		return core.TrapRecord{}, fmt.Errorf("registering trap %d: %w", rec.Entity, err)
	}

	id := rec.Entity
	c.later(core.Tick(settings.FuseTicks+expiryGrace), func() {
		c.expire(id)
	})

	c.armed.Add(context.Background(), 1)
	c.journal(core.TrapEvent{
		Kind:     core.EventArmed,
		Entity:   id,
		Placer:   rec.Placer,
		World:    loc.World,
		Position: tnt.Location().Pos,
		Details:  map[string]any{"fuseTicks": settings.FuseTicks},
	})
	if settings.Debug {
		c.deps.Logger.Info("Trapped TNT spawned", "location", loc.String(), "placer", placer.Name())
	}

	return rec, nil
}

// Stop makes every task the Coordinator has already scheduled a no-op.
// Shield restores still run so no player loses an item.
func (c *Coordinator) Stop() {
	c.stopped.Store(true)
}

// Stopped reports whether Stop was called.
func (c *Coordinator) Stopped() bool {
	return c.stopped.Load()
}

// later schedules fn unless the Coordinator is stopped by the time it is due.
func (c *Coordinator) later(delay core.Tick, fn func()) {
	c.deps.Server.RunLater(delay, func() {
		if c.stopped.Load() {
			return
		}
		fn()
	})
}

// expire forgets a trap whose fuse ran out without an observed explosion.
func (c *Coordinator) expire(id core.EntityID) {
	rec, ok := c.deps.Registry.UnregisterIfPresent(id)
	if !ok {
		return
	}
	c.journal(core.TrapEvent{
		Kind:     core.EventExpired,
		Entity:   id,
		Placer:   rec.Placer,
		World:    rec.Location.World,
		Position: rec.Location.Pos.Corner(),
	})
	c.deps.Logger.Debug("Trapped TNT expired without explosion", "entity", uint64(id))
}

// IsTrap reports whether e is trapped TNT.
func IsTrap(e host.Entity) bool {
	tnt, ok := e.(host.TNT)
	if !ok || tnt == nil {
		return false
	}
	_, tagged := tnt.Metadata(MetaTrappedTNT)
	return tagged
}

// HandleExplode retires a trap whose explosion the host reported.
// Only the first path to unregister a trap handles it.
func (c *Coordinator) HandleExplode(ev *host.EntityExplodeEvent) {
	if !IsTrap(ev.Entity) {
		return
	}

	id := ev.Entity.ID()
	rec, ok := c.deps.Registry.UnregisterIfPresent(id)
	if !ok {
		return
	}

	cause := CauseFuse
	if rec.State == core.TrapDetonating {
		cause = CauseProximity
	}
	settings := c.deps.Settings()
	b := core.BlastEvent{
		Origin: ev.Location,
		Power:  settings.ExplosionPower,
		Tick:   c.deps.Server.CurrentTick(),
	}

	c.deps.Logger.Info("Trapped TNT exploded", "location", b.Origin.String(), "cause", cause)
	c.detonated.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cause", cause)))
	c.journal(core.TrapEvent{
		Kind:     core.EventDetonated,
		Tick:     b.Tick,
		Entity:   id,
		Placer:   rec.Placer,
		World:    b.Origin.World,
		Position: b.Origin.Pos,
		Amount:   b.Power,
		Details:  map[string]any{"cause": cause},
	})

	if settings.BypassShields && settings.DirectBypassDamage {
		c.applyDirectDamage(b, rec, settings)
	}
}

func (c *Coordinator) send(to host.CommandSender, key string, vars map[string]string) {
	msg := util.FormatTemplate(c.deps.Message(key), vars)
	to.SendMessage(util.TranslateColorCodes('&', msg))
}

func (c *Coordinator) journal(e core.TrapEvent) {
	if c.deps.Events != nil {
		c.deps.Events.Append(e)
	}
}
