package detonation

import (
	"context"
	"fmt"

	"github.com/sanscraft/trappedtnt/internal/blast"
	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
)

// HandleDamage applies the shield penalty to players hit by a trap.
//
// A player blocking with a shield takes the unshielded damage times the
// configured multiplier, whatever the host computed. Unblocked hits keep the
// host damage.
func (c *Coordinator) HandleDamage(ev *host.EntityDamageByEntityEvent) {
	settings := c.deps.Settings()
	if !settings.BypassShields || !IsTrap(ev.Damager) {
		return
	}
	victim, ok := ev.Victim.(host.Player)
	if !ok {
		return
	}

	hasShield := host.HasShield(victim.Inventory())

	if victim.IsBlocking() && hasShield {
		c.applyShieldPenalty(ev, victim, settings)
		return
	}

	if !blast.Significant(ev.Damage, settings.DamageThreshold) {
		return
	}
	if hasShield {
		c.send(victim, config.MsgShieldUseless, nil)
	}
}

func (c *Coordinator) applyShieldPenalty(ev *host.EntityDamageByEntityEvent, victim host.Player, settings config.Trap) {
	origin := ev.Damager.Location().Pos
	distance := victim.Location().Pos.Distance(origin)

	trueDamage := blast.TrueDamage(distance, settings.ExplosionPower)
	if !blast.Significant(trueDamage, settings.DamageThreshold) {
		return
	}

	hostDamage := ev.Damage
	applied := trueDamage * settings.ShieldDamageMultiplier
	ev.Damage = applied

	c.send(victim, config.MsgShieldPenalty, map[string]string{"damage": fmt.Sprintf("%.1f", applied)})
	c.overridden.Add(context.Background(), 1)
	c.journal(core.TrapEvent{
		Kind:     core.EventDamageOverridden,
		Entity:   ev.Damager.ID(),
		Player:   victim.UniqueID(),
		World:    victim.Location().World,
		Position: victim.Location().Pos,
		Amount:   applied,
		Details: map[string]any{
			"trueDamage": trueDamage,
			"hostDamage": hostDamage,
			"multiplier": settings.ShieldDamageMultiplier,
			"distance":   distance,
		},
	})

	// after the host has applied its own post-hit velocity
	c.later(1, func() {
		if !victim.IsValid() {
			return
		}
		kb := blast.Knockback(origin, victim.Location().Pos, blast.PenaltyKnockbackStrength, blast.PenaltyKnockbackMinY)
		victim.SetVelocity(victim.Velocity().Add(kb))
	})
}

// applyDirectDamage hits every player in range with the host-style falloff,
// shields taken out of their hands for the duration of the hit.
func (c *Coordinator) applyDirectDamage(b core.BlastEvent, rec core.TrapRecord, settings config.Trap) {
	w, ok := c.deps.Server.World(b.Origin.World)
	if !ok {
		return
	}
	maxDistance := blast.MaxDistance(b.Power)

	for _, p := range w.NearbyPlayers(b.Origin.Pos, maxDistance) {
		distance := p.Location().Pos.Distance(b.Origin.Pos)
		dmg := blast.RawDamage(distance, b.Power)
		if dmg <= 0 || !blast.Significant(dmg, settings.DamageThreshold) {
			continue
		}
		c.applyShieldIgnoringDamage(p, dmg, b.Origin.Pos)
		c.journal(core.TrapEvent{
			Kind:     core.EventDirectDamage,
			Entity:   rec.Entity,
			Placer:   rec.Placer,
			Player:   p.UniqueID(),
			World:    b.Origin.World,
			Position: p.Location().Pos,
			Amount:   dmg,
			Details:  map[string]any{"distance": distance},
		})
	}
}

func (c *Coordinator) applyShieldIgnoringDamage(p host.Player, dmg float64, origin core.Vec3) {
	inv := p.Inventory()
	mainHand, offHand := inv.MainHand(), inv.OffHand()
	hadMain := mainHand.Material == core.MaterialShield
	hadOff := offHand.Material == core.MaterialShield

	empty := core.NewItemStack(core.MaterialAir, 0)
	if hadMain {
		inv.SetMainHand(empty)
	}
	if hadOff {
		inv.SetOffHand(empty)
	}

	p.Damage(dmg)

	kb := blast.Knockback(origin, p.Location().Pos, blast.DirectKnockbackStrength, blast.DirectKnockbackMinY)
	p.SetVelocity(p.Velocity().Add(kb))

	c.send(p, config.MsgExplosionDamage, nil)

	if !hadMain && !hadOff {
		return
	}
	c.deps.Server.RunLater(1, func() {
		if hadMain {
			inv.SetMainHand(mainHand)
		}
		if hadOff {
			inv.SetOffHand(offHand)
		}
	})
}
