// Package blast computes trap explosion damage and knockback.
//
// Two damage formulas exist. RawDamage is the falloff the host applies on its
// own; TrueDamage additionally discounts environmental protection and is what a
// player should really take when their shield is ignored.
package blast

import (
	"math"

	"github.com/sanscraft/trappedtnt/pkg/core"
)

const (
	rangeFactor       = 3.5
	damageFactor      = 7.0
	falloffFactor     = 2.0
	maxEnvProtection  = 0.8
	envProtectionRate = 0.3
)

// Knockback tunings.
const (
	DirectKnockbackStrength  = 0.5
	DirectKnockbackMinY      = 0.1
	PenaltyKnockbackStrength = 1.0
	PenaltyKnockbackMinY     = 0.4
)

// MaxDistance is the blast radius for power p. Targets at or beyond it take no damage.
func MaxDistance(p float64) float64 {
	return p * rangeFactor
}

// BaseDamage is the damage at the blast origin.
func BaseDamage(p float64) float64 {
	return p * damageFactor
}

// RawDamage is the host-style damage at distance d.
func RawDamage(d, p float64) float64 {
	if p <= 0 || d >= MaxDistance(p) {
		return 0
	}
	base := BaseDamage(p)
	reduction := d / (p * falloffFactor)
	return clamp(base*(1-reduction), 0, base)
}

// TrueDamage is the damage at distance d ignoring any blocking.
func TrueDamage(d, p float64) float64 {
	if p <= 0 || d >= MaxDistance(p) {
		return 0
	}
	protection := math.Min(maxEnvProtection, d/MaxDistance(p))
	return clamp(RawDamage(d, p)*(1-protection*envProtectionRate), 0, BaseDamage(p))
}

// Significant reports whether dmg is large enough to act on.
func Significant(dmg, threshold float64) bool {
	return dmg >= threshold
}

// Knockback returns the push away from origin applied to a target at target.
// The result has the given strength and an upward component of at least minY.
func Knockback(origin, target core.Vec3, strength, minY float64) core.Vec3 {
	v := target.Sub(origin).Normalize().Scale(strength)
	v.Y = math.Max(v.Y, minY)
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
