// Package proximity detonates armed traps early when a player walks into them.
package proximity

import (
	"log/slog"

	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/registry"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
)

// TriggerRadius is slightly larger than the primed TNT hitbox.
const TriggerRadius = 1.2

// EntityResolver looks up live trap entities by handle.
type EntityResolver interface {
	TNT(id core.EntityID) (host.TNT, bool)
}

// EventSink receives journal entries.
type EventSink interface {
	Append(e core.TrapEvent)
}

// Dependencies holds everything the Scanner needs.
type Dependencies struct {
	Registry *registry.Registry
	Entities EntityResolver
	Settings func() config.Trap
	Logger   *slog.Logger
	Events   EventSink
}

// Scanner checks a moving player against every armed trap.
type Scanner struct {
	deps Dependencies
}

// New creates a Scanner.
func New(deps Dependencies) *Scanner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Scanner{deps: deps}
}

// Scan triggers at most one trap within TriggerRadius of the player standing at pos.
// It returns the triggered entity, if any.
//
// A triggered trap is marked Detonating and its fuse set to zero; it stays in the
// registry until the explosion handler unregisters it, so Registry.Len still
// counts it between the move and the explosion.
func (s *Scanner) Scan(player host.Player, pos core.Location) (core.EntityID, bool) {
	settings := s.deps.Settings()
	if !settings.InstantExplosionOnContact {
		return 0, false
	}

	for _, rec := range s.deps.Registry.LiveRecords() {
		tnt, ok := s.deps.Entities.TNT(rec.Entity)
		if !ok || !tnt.IsValid() {
			continue
		}

		at := tnt.Location()
		if at.World != pos.World {
			continue
		}

		distance := pos.Pos.Distance(at.Pos)
		if distance > TriggerRadius {
			continue
		}

		// lost a race with another path; keep looking
		if !s.deps.Registry.MarkDetonating(rec.Entity) {
			continue
		}
		tnt.SetFuseTicks(0)

		if settings.Debug {
			s.deps.Logger.Info("Trapped TNT triggered by proximity",
				"location", at.String(),
				"player", player.Name(),
				"distance", distance)
		}
		if s.deps.Events != nil {
			s.deps.Events.Append(core.TrapEvent{
				Kind:     core.EventTriggered,
				Entity:   rec.Entity,
				Placer:   rec.Placer,
				Player:   player.UniqueID(),
				World:    at.World,
				Position: at.Pos,
				Amount:   distance,
			})
		}
		return rec.Entity, true
	}
	return 0, false
}
