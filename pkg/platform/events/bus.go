package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetryPolicy bounds redelivery of a failed event to one listener.
// MaxAttempts <= 1 disables retries.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NoRetry delivers each event exactly once per listener.
var NoRetry = RetryPolicy{MaxAttempts: 1}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	if p.MaxAttempts <= 1 {
		return &backoff.StopBackOff{}
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1)), ctx)
}

// Permanent marks a listener error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type subscription struct {
	eventType string
	name      string
	handler   Handler
	retry     RetryPolicy
	localOnly bool
	mailbox   *mailbox
}

// Bus routes events to subscriptions registered per event type.
type Bus struct {
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	retry   RetryPolicy

	mu       sync.RWMutex
	registry map[string][]*subscription
	closed   bool

	pendingMu sync.Mutex
	idle      *sync.Cond
	pending   int

	wg sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(b *Bus) {
		if t != nil {
			b.tracer = t
		}
	}
}

// WithDefaultRetry sets the policy for subscriptions that do not choose one.
func WithDefaultRetry(p RetryPolicy) Option {
	return func(b *Bus) {
		b.retry = p
	}
}

// NewBus creates a bus with no subscriptions.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		logger:   slog.Default(),
		tracer:   otel.Tracer("arcadia/events"),
		retry:    NoRetry,
		registry: make(map[string][]*subscription),
	}
	b.idle = sync.NewCond(&b.pendingMu)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SubscribeOption configures one subscription.
type SubscribeOption func(*subscription)

// WithRetry overrides the bus default retry policy for one subscription.
func WithRetry(p RetryPolicy) SubscribeOption {
	return func(s *subscription) {
		s.retry = p
	}
}

// Subscribe appends a named listener for eventType and starts its mailbox.
// Listeners for the same type are kept in registration order.
func (b *Bus) Subscribe(eventType, name string, handler Handler, opts ...SubscribeOption) {
	sub := &subscription{
		eventType: eventType,
		name:      name,
		handler:   handler,
		retry:     b.retry,
		mailbox:   newMailbox(),
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Warn("subscribe after bus close ignored",
			"event_type", eventType,
			"listener", name,
		)
		return
	}
	b.registry[eventType] = append(b.registry[eventType], sub)
	b.wg.Add(1)
	go b.run(sub)
}

// On subscribes a typed listener. The event type tag is taken from T's zero
// value, so T must be a value type whose EventType does not read its fields.
func On[T Event](b *Bus, name string, fn func(ctx context.Context, event T) error, opts ...SubscribeOption) {
	var zero T
	b.Subscribe(zero.EventType(), name, func(ctx context.Context, e Event) error {
		typed, ok := e.(T)
		if !ok {
			return Permanent(fmt.Errorf("listener %s: unexpected event %T", name, e))
		}
		return fn(ctx, typed)
	}, opts...)
}

// Listeners returns the subscription names for eventType in delivery order.
func (b *Bus) Listeners(eventType string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.registry[eventType]
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.name
	}
	return names
}

// Publish enqueues evts for every subscribed listener and returns without
// waiting. The delivery context keeps the caller's values but not its
// cancellation, and never carries an open transaction collector.
func (b *Bus) Publish(ctx context.Context, evts ...Event) {
	dctx := withoutCollector(context.WithoutCancel(ctx))
	replayed := Replayed(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range evts {
		if e == nil {
			continue
		}
		if b.closed {
			b.logger.Warn("event dropped: bus closed", "event_type", e.EventType(), "aggregate_id", e.AggregateID())
			continue
		}
		b.metrics.incPublished(e.EventType())
		subs := b.registry[e.EventType()]
		if len(subs) == 0 {
			b.logger.Debug("event has no listeners", "event_type", e.EventType())
			continue
		}
		for _, s := range subs {
			if replayed && s.localOnly {
				continue
			}
			b.track(1)
			if !s.mailbox.push(delivery{ctx: dctx, event: e}) {
				b.track(-1)
			}
		}
	}
}

// Wait blocks until every queued delivery has been handled.
func (b *Bus) Wait() {
	b.pendingMu.Lock()
	for b.pending > 0 {
		b.idle.Wait()
	}
	b.pendingMu.Unlock()
}

// Shutdown stops accepting events, lets every mailbox drain and waits for the
// listener goroutines until ctx is done.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*subscription
	for _, list := range b.registry {
		subs = append(subs, list...)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.mailbox.close()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, s := range subs {
			if depth := s.mailbox.depth(); depth > 0 {
				b.logger.Warn("listener did not drain before shutdown",
					"event_type", s.eventType,
					"listener", s.name,
					"queued", depth,
				)
			}
		}
		return ctx.Err()
	}
}

// Close drains and stops the bus without a deadline.
func (b *Bus) Close() {
	_ = b.Shutdown(context.Background())
}

func (b *Bus) track(delta int) {
	b.pendingMu.Lock()
	b.pending += delta
	if b.pending == 0 {
		b.idle.Broadcast()
	}
	b.pendingMu.Unlock()
}

func (b *Bus) run(s *subscription) {
	defer b.wg.Done()
	for {
		d, ok := s.mailbox.next()
		if !ok {
			return
		}
		b.deliver(s, d)
		b.track(-1)
	}
}

func (b *Bus) deliver(s *subscription, d delivery) {
	eventType := d.event.EventType()
	ctx, span := b.tracer.Start(d.ctx, "events.deliver "+eventType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("event.aggregate_id", d.event.AggregateID()),
			attribute.String("event.listener", s.name),
		),
	)
	defer span.End()

	start := time.Now()
	attempts := 0
	op := func() error {
		attempts++
		return invoke(ctx, s.handler, d.event)
	}
	notify := func(err error, wait time.Duration) {
		b.logger.Warn("listener failed, retrying",
			"event_type", eventType,
			"listener", s.name,
			"attempt", attempts,
			"backoff", wait,
			"error", err,
		)
	}
	err := backoff.RetryNotify(op, s.retry.backOff(ctx), notify)

	b.metrics.observeDelivery(eventType, s.name, attempts, err, start)
	span.SetAttributes(attribute.Int("event.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		b.logger.Error("listener failed",
			"event_type", eventType,
			"aggregate_id", d.event.AggregateID(),
			"listener", s.name,
			"attempts", attempts,
			"error", err,
		)
	}
}

// invoke runs one attempt inside its own recovery boundary. A panic is
// reported as a permanent failure.
func invoke(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("listener panic: %v", r))
		}
	}()
	return h(ctx, e)
}
