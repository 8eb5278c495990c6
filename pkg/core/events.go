package core

import "time"

// TrapEventKind names a journaled trap lifecycle step.
type TrapEventKind string

const (
	EventArmed            TrapEventKind = "armed"
	EventPlacementDenied  TrapEventKind = "placement-denied"
	EventTriggered        TrapEventKind = "triggered"
	EventDetonated        TrapEventKind = "detonated"
	EventExpired          TrapEventKind = "expired"
	EventDamageOverridden TrapEventKind = "damage-overridden"
	EventDirectDamage     TrapEventKind = "direct-damage"
)

// TrapEvent is one audit entry written to the journal.
// Player is the affected player for damage events and the trigger for proximity events.
type TrapEvent struct {
	ID       uint
	Kind     TrapEventKind
	Tick     Tick
	Time     time.Time
	Entity   EntityID
	Placer   PlayerID
	Player   PlayerID
	World    string
	Position Vec3
	Amount   float64
	Details  map[string]any
}
