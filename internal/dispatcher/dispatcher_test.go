package dispatcher

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sanscraft/trappedtnt/pkg/host"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(host.KindPlayerMove, func(e Event) error {
		got = e
		return nil
	})

	err := d.Dispatch(Event{Kind: host.KindPlayerMove, Tick: 10, Payload: "payload"})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got.Tick != 10 || got.Payload != "payload" {
		t.Errorf("handler received %+v", got)
	}
}

func TestDispatcher_UnknownKindIsIgnored(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if err := d.Dispatch(Event{Kind: "nobody-listens"}); err != nil {
		t.Errorf("expected no error for kind without handlers, got %v", err)
	}
	if d.HasHandler("nobody-listens") {
		t.Error("HasHandler should be false")
	}
}

func TestDispatcher_PriorityOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var order []string
	record := func(name string) HandlerFunc {
		return func(Event) error {
			order = append(order, name)
			return nil
		}
	}

	d.Register(host.KindEntityExplode, record("normal-1"))
	d.Register(host.KindEntityExplode, record("high"), Priority(PriorityHigh))
	d.Register(host.KindEntityExplode, record("low"), Priority(PriorityLow))
	d.Register(host.KindEntityExplode, record("normal-2"))

	if err := d.Dispatch(Event{Kind: host.KindEntityExplode}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"low", "normal-1", "normal-2", "high"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected order %v, got %v", want, order)
	}
}

func TestDispatcher_ErrorsAreJoined(t *testing.T) {
	d, _ := newTestDispatcher(t)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := 0

	d.Register(host.KindBlockPlace, func(Event) error { ran++; return errA })
	d.Register(host.KindBlockPlace, func(Event) error { ran++; return nil })
	d.Register(host.KindBlockPlace, func(Event) error { ran++; return errB })

	err := d.Dispatch(Event{Kind: host.KindBlockPlace})

	if ran != 3 {
		t.Errorf("expected all 3 handlers to run, got %d", ran)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected joined error containing both failures, got %v", err)
	}
}

func TestDispatcher_IgnoreCancelled(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var seen []string
	d.Register(host.KindBlockPlace, func(e Event) error {
		seen = append(seen, "canceller")
		e.Payload.(*host.BlockPlaceEvent).SetCancelled(true)
		return nil
	}, Priority(PriorityLow))
	d.Register(host.KindBlockPlace, func(Event) error {
		seen = append(seen, "skipped")
		return nil
	}, IgnoreCancelled())
	d.Register(host.KindBlockPlace, func(Event) error {
		seen = append(seen, "monitor")
		return nil
	}, Priority(PriorityHigh))

	if err := d.Dispatch(Event{Kind: host.KindBlockPlace, Payload: &host.BlockPlaceEvent{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"canceller", "monitor"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, seen)
	}
}

func TestDispatcher_Reset(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(host.KindPlayerMove, func(Event) error { return nil })
	if !d.HasHandler(host.KindPlayerMove) {
		t.Fatal("expected handler to be registered")
	}

	d.Reset()

	if d.HasHandler(host.KindPlayerMove) {
		t.Error("expected no handlers after Reset")
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(host.KindPlayerMove, func(e Event) error {
		return nil
	}, Logged())
	d.Register(host.KindEntityExplode, func(e Event) error {
		return errors.New("boom")
	}, Logged())

	d.Dispatch(Event{Kind: host.KindPlayerMove})
	d.Dispatch(Event{Kind: host.KindEntityExplode})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) != 4 {
		t.Fatalf("expected 4 log messages, got %d: %v", len(logger.messages), logger.messages)
	}
	if logger.messages[3][:6] != "ERROR:" {
		t.Errorf("expected failure to be logged as error, got %q", logger.messages[3])
	}
}
