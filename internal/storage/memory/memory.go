package memory

import (
	"sync"

	"github.com/sanscraft/trappedtnt/pkg/core"
)

// Backend keeps the journal in memory. It is lost on restart.
type Backend struct {
	events    []core.TrapEvent
	idCounter uint
	mu        sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close drops all recorded events.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	return nil
}

// Record appends e and assigns its ID.
func (b *Backend) Record(e *core.TrapEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	e.ID = b.idCounter
	b.events = append(b.events, *e)
	return nil
}

// Events returns a copy of the recorded events.
func (b *Backend) Events() ([]core.TrapEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.TrapEvent, len(b.events))
	copy(out, b.events)
	return out, nil
}

// Count returns how many events of kind were recorded.
func (b *Backend) Count(kind core.TrapEventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, e := range b.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
