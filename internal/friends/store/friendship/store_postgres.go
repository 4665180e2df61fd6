package friendship

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arcadia/internal/friends/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	txcontext "arcadia/pkg/platform/tx"
)

// PostgresStore persists friendships. A unique index over
// (LEAST, GREATEST) of the two ids keeps one row per unordered pair.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const columns = `id, requester_id, addressee_id, status, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.FriendshipID) (*models.Friendship, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM friendships WHERE id = $1`+s.lock(ctx), uuid.UUID(id))
}

func (s *PostgresStore) FindByPair(ctx context.Context, a, b domain.PlayerID) (*models.Friendship, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1)`+s.lock(ctx),
		uuid.UUID(a), uuid.UUID(b))
}

// lock makes single-row reads inside a transaction hold the row until commit.
func (s *PostgresStore) lock(ctx context.Context) string {
	if _, ok := txcontext.From(ctx); ok {
		return ` FOR UPDATE`
	}
	return ""
}

func (s *PostgresStore) ExistsByPair(ctx context.Context, a, b domain.PlayerID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT EXISTS (
		SELECT 1 FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))`,
		uuid.UUID(a), uuid.UUID(b),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check friendship exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByUserAndStatus(ctx context.Context, user domain.PlayerID, status models.Status, page models.Page) ([]*models.Friendship, int, error) {
	page = page.Normalize()
	var total int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT count(*) FROM friendships
		WHERE (requester_id = $1 OR addressee_id = $1) AND status = $2`,
		uuid.UUID(user), string(status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count friendships: %w", err)
	}
	list, err := s.queryMany(ctx, `SELECT `+columns+` FROM friendships
		WHERE (requester_id = $1 OR addressee_id = $1) AND status = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		uuid.UUID(user), string(status), page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *PostgresStore) ListIncomingByStatus(ctx context.Context, user domain.PlayerID, status models.Status) ([]*models.Friendship, error) {
	return s.queryMany(ctx, `SELECT `+columns+` FROM friendships
		WHERE addressee_id = $1 AND status = $2
		ORDER BY created_at DESC, id`,
		uuid.UUID(user), string(status))
}

func (s *PostgresStore) Save(ctx context.Context, f *models.Friendship) error {
	const query = `
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET requester_id = EXCLUDED.requester_id, addressee_id = EXCLUDED.addressee_id,
			status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(f.ID), uuid.UUID(f.RequesterID), uuid.UUID(f.AddresseeID),
		string(f.Status), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save friendship: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*models.Friendship, error) {
	f, err := scan(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find friendship: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Friendship, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Friendship, 0)
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Friendship, error) {
	var (
		id, requester, addressee uuid.UUID
		status                   string
		createdAt, updatedAt     time.Time
	)
	if err := row.Scan(&id, &requester, &addressee, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return &models.Friendship{
		ID:          domain.FriendshipID(id),
		RequesterID: domain.PlayerID(requester),
		AddresseeID: domain.PlayerID(addressee),
		Status:      st,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
