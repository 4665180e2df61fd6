package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"arcadia/pkg/platform/circuit"
)

// Source is the relay's view of the outbox table.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Message is one broker record.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Sink produces records to a broker topic.
type Sink interface {
	Produce(ctx context.Context, topic string, msgs ...Message) error
}

// Relay polls the outbox and forwards entries to the sink in commit order.
// An entry is marked published only after the sink acknowledged it, so the
// broker sees every committed event at least once.
type Relay struct {
	source    Source
	sink      Sink
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	breaker   *circuit.Breaker
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) {
		r.breaker = b
	}
}

func NewRelay(source Source, sink Sink, topic string, opts ...RelayOption) *Relay {
	r := &Relay{
		source:    source,
		sink:      sink,
		topic:     topic,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		breaker:   circuit.New("outbox-relay", circuit.WithFailureThreshold(3), circuit.WithCooldown(10*time.Second)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !r.breaker.Allow() {
				continue
			}
			if _, err := r.RelayOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				if _, change := r.breaker.RecordFailure(); change.Opened {
					r.logger.Warn("outbox relay paused", "breaker", r.breaker.Name())
				}
				r.logger.Error("outbox relay failed", "topic", r.topic, "error", err)
				continue
			}
			if _, change := r.breaker.RecordSuccess(); change.Closed {
				r.logger.Info("outbox relay resumed", "breaker", r.breaker.Name())
			}
		}
	}
}

// RelayOnce forwards one batch and returns how many entries were published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	msgs := make([]Message, len(entries))
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		msgs[i] = Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event-type": e.EventType,
			},
		}
		ids[i] = e.ID
	}
	if err := r.sink.Produce(ctx, r.topic, msgs...); err != nil {
		return 0, err
	}
	if err := r.source.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	r.logger.Debug("outbox batch relayed", "topic", r.topic, "count", len(entries))
	return len(entries), nil
}
