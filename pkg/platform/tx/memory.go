package tx

import (
	"context"
	"time"

	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
)

const defaultMemoryTxTimeout = 5 * time.Second

// MemoryRunner serializes boundaries over in-memory stores with one coarse
// lock. Cross-aggregate invariants (one active lobby per player) need every
// use case to observe a consistent snapshot, so the lock is not sharded.
type MemoryRunner struct {
	sem       chan struct{}
	publisher events.Publisher
	timeout   time.Duration
}

// MemoryOption configures a MemoryRunner.
type MemoryOption func(*MemoryRunner)

// WithTimeout bounds how long a caller waits for the lock.
func WithTimeout(d time.Duration) MemoryOption {
	return func(r *MemoryRunner) {
		r.timeout = d
	}
}

// NewMemoryRunner releases committed events to publisher.
func NewMemoryRunner(publisher events.Publisher, opts ...MemoryOption) *MemoryRunner {
	if publisher == nil {
		publisher = events.Discard
	}
	r := &MemoryRunner{sem: make(chan struct{}, 1), publisher: publisher, timeout: defaultMemoryTxTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := events.CollectorFrom(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if err := r.lock(ctx); err != nil {
		return err
	}
	txCtx, collector := events.WithCollector(ctx)
	err := func() error {
		defer func() { <-r.sem }()
		return fn(txCtx)
	}()
	if err != nil {
		return err
	}
	r.publisher.Publish(ctx, collector.Drain()...)
	return nil
}

func (r *MemoryRunner) lock(ctx context.Context) error {
	deadline := time.NewTimer(r.timeout)
	defer deadline.Stop()
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: context cancelled")
	case <-deadline.C:
		return dErrors.New(dErrors.CodeTimeout, "transaction aborted: lock wait timed out")
	}
}
