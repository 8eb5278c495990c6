package storage

import (
	"log/slog"
	"time"

	"github.com/sanscraft/trappedtnt/pkg/core"
)

// Journal fans trap events out to every recorder.
// Recorder failures are logged and never reach gameplay code.
type Journal struct {
	recorders []Recorder
	logger    *slog.Logger
	now       func() time.Time
	tick      func() core.Tick
}

// NewJournal creates a Journal writing to the given recorders. Nil recorders are ignored.
func NewJournal(logger *slog.Logger, recorders ...Recorder) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	valid := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			valid = append(valid, r)
		}
	}
	return &Journal{recorders: valid, logger: logger, now: time.Now}
}

// SetTickSource makes Append stamp events that carry no tick.
func (j *Journal) SetTickSource(tick func() core.Tick) {
	j.tick = tick
}

// Append stamps e with the clocks if needed and records it everywhere.
func (j *Journal) Append(e core.TrapEvent) {
	if j == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = j.now()
	}
	if e.Tick == 0 && j.tick != nil {
		e.Tick = j.tick()
	}
	for _, r := range j.recorders {
		ev := e
		if err := r.Record(&ev); err != nil {
			j.logger.Warn("Failed to journal trap event", "kind", string(e.Kind), "entity", uint64(e.Entity), "error", err)
		}
	}
}
