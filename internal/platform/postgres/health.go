package postgres

import (
	"context"
	"database/sql"
)

// HealthCheck adapts a pool to a readiness check.
func HealthCheck(db *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
