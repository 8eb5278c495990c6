package storage

import "github.com/sanscraft/trappedtnt/pkg/core"

// Recorder accepts trap events. Record assigns e.ID when the sink has ids.
type Recorder interface {
	Record(e *core.TrapEvent) error
}

// Backend is the interface all journal implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Recorder

	// Events returns every recorded event in the order it was recorded.
	Events() ([]core.TrapEvent, error)
}
