package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"arcadia/pkg/platform/events"
	txcontext "arcadia/pkg/platform/tx"
)

// OutboxWriter appends committed events inside the open transaction.
type OutboxWriter interface {
	Append(ctx context.Context, evts ...events.Event) error
}

// TxRunner runs each boundary in a READ COMMITTED transaction. Events
// recorded during the boundary are written to the outbox before commit and
// published locally after it.
type TxRunner struct {
	db        *sql.DB
	publisher events.Publisher
	outbox    OutboxWriter
	logger    *slog.Logger
}

type TxOption func(*TxRunner)

func WithOutbox(w OutboxWriter) TxOption {
	return func(r *TxRunner) {
		r.outbox = w
	}
}

func WithLogger(logger *slog.Logger) TxOption {
	return func(r *TxRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewTxRunner(db *sql.DB, publisher events.Publisher, opts ...TxOption) *TxRunner {
	if publisher == nil {
		publisher = events.Discard
	}
	r := &TxRunner{db: db, publisher: publisher, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := events.CollectorFrom(ctx); ok {
		return fn(ctx)
	}

	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("rollback failed", "error", rbErr)
		}
	}()

	txCtx, collector := events.WithCollector(txcontext.WithTx(ctx, sqlTx))
	if err := fn(txCtx); err != nil {
		return err
	}

	recorded := collector.Drain()
	if r.outbox != nil && len(recorded) > 0 {
		if err := r.outbox.Append(txCtx, recorded...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	r.publisher.Publish(ctx, recorded...)
	return nil
}
