package extract

import (
	"sync"

	"audioextract/internal/destination"
)

// Event is emitted by a run. Concrete types are Progress, Log, Error, Result and Done.
type Event interface {
	eventType() string
}

// Progress reports batch progress while an input is being copied.
type Progress struct {
	Total int
	// Current is the 1-based position of the input being processed.
	Current int
	Percent int
	Message string
}

// Log mirrors one session log line. Only emitted when LogEvents is enabled.
type Log struct {
	Line string
}

// Error reports a non-fatal per-input failure.
type Error struct {
	Index   int
	Total   int
	Message string
}

// Result carries the terminal outcome of one input.
type Result struct {
	JobResult JobResult
}

// Done is emitted exactly once, after the session log has been flushed.
type Done struct {
	RunID     string
	Message   string
	OK        int
	Failed    int
	Cancelled bool
	// LogRef is zero when the session log could not be persisted.
	LogRef destination.Ref
}

func (Progress) eventType() string { return "progress" }
func (Log) eventType() string      { return "log" }
func (Error) eventType() string    { return "error" }
func (Result) eventType() string   { return "result" }
func (Done) eventType() string     { return "done" }

// EventType returns the stable name of an event's kind.
func EventType(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventType()
}

// Observer receives run events on the orchestrator's worker goroutine.
// Implementations must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans events out to each non-nil observer in order.
type MultiObserver []Observer

// Observe forwards e to every observer.
func (m MultiObserver) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

// ChannelObserver writes events to a channel. Progress events are dropped
// when the channel is full; every other event is delivered, so the consumer
// must keep draining until the channel is closed.
type ChannelObserver struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewChannelObserver returns an observer backed by a channel of the given capacity.
func NewChannelObserver(capacity int) *ChannelObserver {
	if capacity < 0 {
		capacity = 0
	}
	return &ChannelObserver{ch: make(chan Event, capacity)}
}

// Events returns the receive side of the channel.
func (c *ChannelObserver) Events() <-chan Event {
	return c.ch
}

// Observe delivers e.
func (c *ChannelObserver) Observe(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := e.(Progress); ok {
		select {
		case c.ch <- e:
		default:
		}
		return
	}
	c.ch <- e
}

// Close closes the channel. Later events are discarded.
func (c *ChannelObserver) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
