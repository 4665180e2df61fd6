package catalog

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

const columns = `id, game_id, name, description, trigger_condition, category, rarity, criteria, third_party, code, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AchievementID) (*models.Achievement, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM achievements WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByGame(ctx context.Context, game domain.GameID) ([]*models.Achievement, error) {
	return s.queryMany(ctx, `SELECT `+columns+` FROM achievements WHERE game_id = $1 ORDER BY created_at, id`, uuid.UUID(game))
}

func (s *PostgresStore) FindByGameAndCode(ctx context.Context, game domain.GameID, code string) (*models.Achievement, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM achievements WHERE game_id = $1 AND code = $2`, uuid.UUID(game), code)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Achievement, error) {
	return s.queryMany(ctx, `SELECT `+columns+` FROM achievements ORDER BY created_at, id`)
}

func (s *PostgresStore) Save(ctx context.Context, a *models.Achievement) error {
	var code sql.NullString
	if a.Code != "" {
		code = sql.NullString{String: a.Code, Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO achievements (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger_condition = EXCLUDED.trigger_condition,
			category = EXCLUDED.category,
			rarity = EXCLUDED.rarity,
			criteria = EXCLUDED.criteria`,
		uuid.UUID(a.ID), uuid.UUID(a.GameID), a.Name, a.Description, a.TriggerCondition,
		string(a.Category), string(a.Rarity), string(a.Criteria), a.ThirdParty, code, a.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save achievement: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*models.Achievement, error) {
	a, err := scan(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find achievement: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Achievement, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Achievement, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Achievement, error) {
	var (
		a                          models.Achievement
		id, game                   uuid.UUID
		category, rarity, criteria string
		code                       sql.NullString
	)
	err := row.Scan(&id, &game, &a.Name, &a.Description, &a.TriggerCondition,
		&category, &rarity, &criteria, &a.ThirdParty, &code, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AchievementID(id)
	a.GameID = domain.GameID(game)
	a.Category = models.Category(category)
	a.Rarity = models.Rarity(rarity)
	a.Criteria = models.Criteria(criteria)
	a.Code = code.String
	return &a, nil
}
