package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event is a host callback routed to the handlers registered for its kind.
type Event struct {
	Kind    string
	Tick    core.Tick
	Payload any
}

// HandlerFunc processes an event.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Handler priorities. Lower values run first.
const (
	PriorityLow    = -10
	PriorityNormal = 0
	PriorityHigh   = 10
)

// Option configures handler registration.
type Option func(*config)

type config struct {
	priority        int
	ignoreCancelled bool
	logged          bool
}

// Priority sets the order in which the handler runs relative to others of the same kind.
func Priority(p int) Option {
	return func(c *config) {
		c.priority = p
	}
}

// IgnoreCancelled skips the handler when the payload has already been cancelled.
func IgnoreCancelled() Option {
	return func(c *config) {
		c.ignoreCancelled = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type registration struct {
	priority        int
	ignoreCancelled bool
	fn              HandlerFunc
}

// Dispatcher routes events to registered handlers synchronously, on the caller's goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	logger   Logger

	// OTEL metrics
	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string][]registration),
		logger:   logger,
	}

	m := meter()

	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total handler invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total handler invocations that returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given event kind with optional configuration.
// Handlers with equal priority run in registration order.
func (d *Dispatcher) Register(kind string, h HandlerFunc, opts ...Option) {
	cfg := &config{priority: PriorityNormal}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged && d.logger != nil {
		handler = d.withLogging(kind, handler)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	regs := append(d.handlers[kind], registration{
		priority:        cfg.priority,
		ignoreCancelled: cfg.ignoreCancelled,
		fn:              handler,
	})
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].priority < regs[j].priority
	})
	d.handlers[kind] = regs
}

// Dispatch runs every handler registered for the event's kind.
// A failing handler does not stop the others; their errors are joined.
// Events without handlers are ignored.
func (d *Dispatcher) Dispatch(e Event) error {
	d.mu.RLock()
	regs := d.handlers[e.Kind]
	d.mu.RUnlock()

	kindAttr := metric.WithAttributes(attribute.String("kind", e.Kind))

	var errs []error
	for _, r := range regs {
		if r.ignoreCancelled && isCancelled(e.Payload) {
			continue
		}
		err := r.fn(e)
		d.processed.Add(context.Background(), 1, kindAttr)
		if err != nil {
			d.failed.Add(context.Background(), 1, kindAttr)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HasHandler returns true if at least one handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[kind]) > 0
}

// Reset removes every registered handler.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[string][]registration)
}

func isCancelled(payload any) bool {
	c, ok := payload.(host.Cancellable)
	return ok && c.IsCancelled()
}

func (d *Dispatcher) withLogging(kind string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind, "tick", e.Tick)

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "kind", kind, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "kind", kind, "duration", time.Since(start))
		}

		return err
	}
}
