package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the broker-neutral view of one record handed to handlers.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Handler processes one message. A returned error is retried with backoff
// and the record's offset is not committed until the handler succeeds. Wrap
// the error with Permanent to skip a record that can never succeed.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Permanent marks a handler error as not worth retrying. The record is
// logged and committed.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Consumer polls a consumer group and commits after each handled batch.
type Consumer struct {
	client          *kgo.Client
	logger          *slog.Logger
	initialInterval time.Duration
	maxInterval     time.Duration
}

type ConsumerOption func(*Consumer)

// WithRetryIntervals bounds the backoff between attempts at a failing
// record.
func WithRetryIntervals(initial, maxInterval time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if initial > 0 {
			c.initialInterval = initial
		}
		if maxInterval > 0 {
			c.maxInterval = maxInterval
		}
	}
}

// NewConsumer builds a group consumer over client, which must have been
// created with kgo.ConsumerGroup, kgo.ConsumeTopics and kgo.DisableAutoCommit.
func NewConsumer(client *kgo.Client, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		client:          client,
		logger:          logger,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GroupOpts are the client options a Consumer expects.
func GroupOpts(group string, topics ...string) []kgo.Opt {
	return []kgo.Opt{
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	}
}

// Run polls until ctx is cancelled or the client is closed. Records are
// handled in order; a failing record holds back the ones after it. When ctx
// ends while a record is still failing the batch is left uncommitted, so the
// group fetches it again after a restart.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				return nil
			}
			c.logger.Warn("kafka fetch error", "topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
		}

		for iter := fetches.RecordIter(); !iter.Done(); {
			if err := c.Process(ctx, handler, toMessage(iter.Next())); err != nil {
				return nil
			}
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("kafka commit failed", "error", err)
		}
	}
}

// Process runs handler on msg until it succeeds or fails permanently. It
// returns an error only when ctx ended first.
func (c *Consumer) Process(ctx context.Context, handler Handler, msg *Message) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialInterval
	exp.MaxInterval = c.maxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := handler.Handle(ctx, msg)
		if err != nil && !IsPermanent(err) {
			c.logger.Warn("kafka handler failed, retrying",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"attempt", attempt,
				"error", err,
			)
		}
		return err
	}, backoff.WithContext(exp, ctx))
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	}
	c.logger.Error("kafka handler failed permanently, skipping record",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"error", err,
	)
	return nil
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}

func toMessage(rec *kgo.Record) *Message {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     rec.Topic,
		Key:       rec.Key,
		Value:     rec.Value,
		Headers:   headers,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Timestamp: rec.Timestamp,
	}
}

// Router dispatches messages by topic. Messages for unrouted topics are
// logged and skipped.
type Router struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: make(map[string]Handler), logger: logger}
}

func (r *Router) Route(topic string, h Handler) {
	r.handlers[topic] = h
}

// Topics lists the routed topics for kgo.ConsumeTopics.
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	return topics
}

func (r *Router) Handle(ctx context.Context, msg *Message) error {
	h, ok := r.handlers[msg.Topic]
	if !ok {
		r.logger.Warn("no handler for topic", "topic", msg.Topic)
		return nil
	}
	return h.Handle(ctx, msg)
}
