package host

import "github.com/sanscraft/trappedtnt/pkg/core"

// Event kinds delivered by the host.
const (
	KindBlockPlace           = "block-place"
	KindPlayerMove           = "player-move"
	KindEntityExplode        = "entity-explode"
	KindEntityDamageByEntity = "entity-damage-by-entity"
)

// Cancellable events can be vetoed by a handler. A cancelled event is not
// applied by the host after dispatch.
type Cancellable interface {
	IsCancelled() bool
	SetCancelled(cancel bool)
}

type cancellable struct {
	cancelled bool
}

func (c *cancellable) IsCancelled() bool        { return c.cancelled }
func (c *cancellable) SetCancelled(cancel bool) { c.cancelled = cancel }

// BlockPlaceEvent fires after a player places a block, before the host commits it.
type BlockPlaceEvent struct {
	cancellable
	Player Player
	Item   core.ItemStack
	Block  core.BlockLocation
}

// PlayerMoveEvent fires when a player's position changes.
type PlayerMoveEvent struct {
	cancellable
	Player Player
	From   core.Location
	To     core.Location
}

// EntityExplodeEvent fires when an entity explodes, before blast damage is dealt.
type EntityExplodeEvent struct {
	cancellable
	Entity   Entity
	Location core.Location
	Yield    float64
}

// EntityDamageByEntityEvent fires for every entity damaged by another one.
// Damage is the host-computed amount and can be overridden.
type EntityDamageByEntityEvent struct {
	cancellable
	Damager Entity
	Victim  Entity
	Damage  float64
}
