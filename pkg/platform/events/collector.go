package events

import (
	"context"
	"sync"
)

type collectorKey struct{}

// Collector buffers the events recorded inside one transactional boundary.
// The boundary owner releases them only after the state change succeeds.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// WithCollector opens a buffer in ctx.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// CollectorFrom returns the buffer of the innermost open boundary.
func CollectorFrom(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok && c != nil
}

func withoutCollector(ctx context.Context) context.Context {
	if _, ok := CollectorFrom(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, collectorKey{}, (*Collector)(nil))
}

// Add appends events in recording order.
func (c *Collector) Add(evts ...Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range evts {
		if e != nil {
			c.events = append(c.events, e)
		}
	}
}

// Drain returns the buffered events and empties the buffer.
func (c *Collector) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

// Len reports how many events are buffered.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Recorder is the Publisher handed to use cases. Inside an open boundary it
// records into the boundary's Collector; outside one it forwards to next.
type Recorder struct {
	next Publisher
}

func NewRecorder(next Publisher) *Recorder {
	if next == nil {
		next = Discard
	}
	return &Recorder{next: next}
}

func (r *Recorder) Publish(ctx context.Context, evts ...Event) {
	if c, ok := CollectorFrom(ctx); ok {
		c.Add(evts...)
		return
	}
	r.next.Publish(ctx, evts...)
}
