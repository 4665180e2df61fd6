// Package outbox persists committed domain events next to the state change
// that produced them and relays them to the broker afterwards.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arcadia/pkg/platform/events"
	txcontext "arcadia/pkg/platform/tx"
)

// Entry is one stored envelope awaiting relay.
type Entry struct {
	ID          uuid.UUID
	EventType   string
	AggregateID string
	Payload     []byte
	CreatedAt   time.Time
}

// Store writes envelopes to the outbox table.
type Store struct {
	db     *sql.DB
	origin string
	now    func() time.Time
}

// New creates a store that stamps every envelope with origin, the id of the
// process that committed it.
func New(db *sql.DB, origin string) *Store {
	return &Store{db: db, origin: origin, now: time.Now}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts one row per event. Called inside the boundary's transaction
// so the rows commit or roll back with the state change.
func (s *Store) Append(ctx context.Context, evts ...events.Event) error {
	const query = `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := s.now()
	for i, e := range evts {
		env, err := events.NewEnvelope(e, s.origin, now)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal %s envelope: %w", env.Type, err)
		}
		// created_at is nudged per event so relay order matches recording order.
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		_, err = s.execer(ctx).ExecContext(ctx, query,
			uuid.MustParse(env.ID),
			aggregateType(env.Type),
			env.AggregateID,
			env.Type,
			raw,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

// FetchUnpublished returns the oldest unrelayed entries.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, event_type, aggregate_id, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps relayed entries.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	const query = `UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])`
	if _, err := s.execer(ctx).ExecContext(ctx, query, pq.Array(raw), s.now()); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// DeletePublishedBefore prunes relayed rows older than cutoff.
func (s *Store) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune outbox: %w", err)
	}
	return res.RowsAffected()
}

func aggregateType(eventType string) string {
	if i := strings.IndexByte(eventType, '.'); i > 0 {
		return eventType[:i]
	}
	return eventType
}
