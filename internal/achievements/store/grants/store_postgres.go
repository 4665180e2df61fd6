package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	txcontext "arcadia/pkg/platform/tx"
)

// PostgresStore persists grants. UNIQUE(player_id, achievement_id) backs
// the idempotent grant when two deliveries race past the existence check.
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

func (s *PostgresStore) ExistsByPlayerAndAchievement(ctx context.Context, player domain.PlayerID, achievement domain.AchievementID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_achievements WHERE player_id = $1 AND achievement_id = $2)`,
		uuid.UUID(player), uuid.UUID(achievement),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user achievement: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByPlayer(ctx context.Context, player domain.PlayerID) ([]*models.UserAchievement, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, player_id, achievement_id, unlocked_at
		FROM user_achievements
		WHERE player_id = $1
		ORDER BY unlocked_at DESC`, uuid.UUID(player))
	if err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	defer rows.Close()
	out := make([]*models.UserAchievement, 0)
	for rows.Next() {
		var id, p, a uuid.UUID
		var ua models.UserAchievement
		if err := rows.Scan(&id, &p, &a, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan user achievement: %w", err)
		}
		ua.ID = domain.UserAchievementID(id)
		ua.PlayerID = domain.PlayerID(p)
		ua.AchievementID = domain.AchievementID(a)
		out = append(out, &ua)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, ua *models.UserAchievement) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO user_achievements (id, player_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.UUID(ua.ID), uuid.UUID(ua.PlayerID), uuid.UUID(ua.AchievementID), ua.UnlockedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save user achievement: %w", err)
	}
	return nil
}
