package core

// TrapState is the lifecycle state of an armed trap.
type TrapState uint8

const (
	// TrapArmed traps are counting down and visible to proximity scans.
	TrapArmed TrapState = iota
	// TrapDetonating traps had their fuse forced to zero and wait for the host explosion.
	TrapDetonating
)

func (s TrapState) String() string {
	switch s {
	case TrapArmed:
		return "armed"
	case TrapDetonating:
		return "detonating"
	default:
		return "unknown"
	}
}

// TrapRecord describes one live trap.
// Entity is a weak handle: the host may despawn the entity at any time.
type TrapRecord struct {
	Location  BlockLocation
	Entity    EntityID
	Placer    PlayerID
	FuseTicks int
	ArmedAt   Tick
	State     TrapState
}

// ExpiresAt is the tick at which the fuse runs out naturally.
func (r TrapRecord) ExpiresAt() Tick {
	return r.ArmedAt + Tick(r.FuseTicks)
}

// BlastEvent is the momentary record of one detonation.
type BlastEvent struct {
	Origin Location
	Power  float64
	Tick   Tick
}
