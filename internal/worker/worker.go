// Package worker moves journal writes off the tick loop. Events are queued
// by Record and written to the target recorder by a background goroutine.
package worker

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sanscraft/trappedtnt/internal/storage"
	"github.com/sanscraft/trappedtnt/pkg/core"
)

// DefaultInterval is how often queued events are written.
const DefaultInterval = time.Second

// Dependencies holds all dependencies for a Writer
type Dependencies struct {
	Name   string
	Target storage.Recorder
	// Closer is closed after the final flush, usually the target backend.
	Closer   io.Closer
	Interval time.Duration
	Logger   zerolog.Logger
}

// Writer is a storage.Recorder that batches events for its target.
type Writer struct {
	deps Dependencies

	mu      sync.Mutex
	pending []core.TrapEvent

	lastWrite atomic.Int64
	written   atomic.Int64
	running   atomic.Bool

	stopChan  chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a Writer. Call Start to begin background writes.
func New(deps Dependencies) *Writer {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Writer{
		deps:     deps,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (w *Writer) Start() {
	w.startOnce.Do(func() {
		w.running.Store(true)
		go w.loop()
	})
}

func (w *Writer) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.Flush()
		}
	}
}

// Record queues a copy of e. It never blocks on the target.
func (w *Writer) Record(e *core.TrapEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, *e)
	return nil
}

// Pending returns the number of queued events.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Written returns the number of events the target accepted.
func (w *Writer) Written() int64 {
	return w.written.Load()
}

// LastWriteDuration returns how long the last non-empty flush took.
func (w *Writer) LastWriteDuration() time.Duration {
	return time.Duration(w.lastWrite.Load())
}

// Flush writes every queued event and returns how many the target accepted.
// Failed events are logged and dropped.
func (w *Writer) Flush() int {
	w.mu.Lock()
	batch := w.pending
	w.pending = make([]core.TrapEvent, 0, cap(batch))
	w.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	start := time.Now()
	ok := 0
	for i := range batch {
		if err := w.deps.Target.Record(&batch[i]); err != nil {
			w.deps.Logger.Warn().Err(err).
				Str("writer", w.deps.Name).
				Str("kind", string(batch[i].Kind)).
				Msg("Dropping trap event")
			continue
		}
		ok++
	}
	w.lastWrite.Store(int64(time.Since(start)))
	w.written.Add(int64(ok))

	w.deps.Logger.Debug().
		Str("writer", w.deps.Name).
		Int("events", ok).
		Dur("duration", time.Since(start)).
		Msg("Wrote trap events")
	return ok
}

// Close stops the goroutine, writes what is left and closes the Closer.
func (w *Writer) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)
		if w.running.Load() {
			<-w.done
		}
		w.Flush()
		if w.deps.Closer != nil {
			if cerr := w.deps.Closer.Close(); cerr != nil {
				err = fmt.Errorf("closing %s: %w", w.deps.Name, cerr)
			}
		}
	})
	return err
}
