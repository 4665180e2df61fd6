// Package tx defines the transactional boundary every use case runs in.
//
// A Runner opens a boundary, places it in the context and commits or discards
// it when fn returns. Events recorded through an events.Recorder while the
// boundary is open are released to the publisher only after a successful
// commit, in recording order.
package tx

import (
	"context"
	"database/sql"
)

// Runner executes fn inside one transactional boundary. A RunInTx call made
// with a context that already carries a boundary joins it.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
