// Package registry tracks armed traps by their live entity.
//
// UnregisterIfPresent is the only way a record leaves the registry, which makes it
// the gate that lets exactly one detonation or cleanup path handle a trap.
package registry

import (
	"errors"
	"sync"

	"github.com/sanscraft/trappedtnt/pkg/core"
)

// ErrAlreadyTracked is returned when registering an entity that already has a record.
var ErrAlreadyTracked = errors.New("entity already tracked")

// Registry is the authoritative mapping from trap entity to TrapRecord.
type Registry struct {
	m       sync.Mutex
	records map[core.EntityID]core.TrapRecord
	order   []core.EntityID

	// diagnostic index only
	locations map[core.BlockLocation]core.EntityID
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		records:   make(map[core.EntityID]core.TrapRecord),
		locations: make(map[core.BlockLocation]core.EntityID),
	}
}

// Register starts tracking r. The record is stored as armed.
func (r *Registry) Register(rec core.TrapRecord) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.records[rec.Entity]; ok {
		return ErrAlreadyTracked
	}
	rec.State = core.TrapArmed
	r.records[rec.Entity] = rec
	r.order = append(r.order, rec.Entity)
	r.locations[rec.Location] = rec.Entity
	return nil
}

// MarkDetonating moves an armed record to the detonating state, hiding it from
// LiveRecords. It returns false if the entity is unknown or not armed.
func (r *Registry) MarkDetonating(id core.EntityID) bool {
	r.m.Lock()
	defer r.m.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.State != core.TrapArmed {
		return false
	}
	rec.State = core.TrapDetonating
	r.records[id] = rec
	return true
}

// UnregisterIfPresent removes the record for id and returns it.
// ok is false when there was nothing to remove.
func (r *Registry) UnregisterIfPresent(id core.EntityID) (rec core.TrapRecord, ok bool) {
	r.m.Lock()
	defer r.m.Unlock()

	rec, ok = r.records[id]
	if !ok {
		return core.TrapRecord{}, false
	}
	delete(r.records, id)
	if r.locations[rec.Location] == id {
		delete(r.locations, rec.Location)
	}
	for i, e := range r.order {
		if e == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return rec, true
}

// LiveRecords returns a snapshot of the armed records in registration order.
// Callers may unregister entries while iterating the snapshot.
func (r *Registry) LiveRecords() []core.TrapRecord {
	r.m.Lock()
	defer r.m.Unlock()

	out := make([]core.TrapRecord, 0, len(r.order))
	for _, id := range r.order {
		if rec := r.records[id]; rec.State == core.TrapArmed {
			out = append(out, rec)
		}
	}
	return out
}

// Get returns the record for id.
func (r *Registry) Get(id core.EntityID) (core.TrapRecord, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Len returns the number of tracked records in any state.
func (r *Registry) Len() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.records)
}

// PlacerAt returns who armed the trap placed at loc.
func (r *Registry) PlacerAt(loc core.BlockLocation) (core.PlayerID, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	id, ok := r.locations[loc]
	if !ok {
		return "", false
	}
	return r.records[id].Placer, true
}

// Locations returns the placement location of every tracked trap.
func (r *Registry) Locations() []core.BlockLocation {
	r.m.Lock()
	defer r.m.Unlock()
	out := make([]core.BlockLocation, 0, len(r.locations))
	for _, id := range r.order {
		rec := r.records[id]
		if r.locations[rec.Location] == id {
			out = append(out, rec.Location)
		}
	}
	return out
}

// Clear drops all state.
func (r *Registry) Clear() {
	r.m.Lock()
	defer r.m.Unlock()
	r.records = make(map[core.EntityID]core.TrapRecord)
	r.order = nil
	r.locations = make(map[core.BlockLocation]core.EntityID)
}
