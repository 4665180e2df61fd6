package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arcadia/internal/player/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	txcontext "arcadia/pkg/platform/tx"
)

// PostgresStore persists players in the players table. Username uniqueness
// is enforced by the lower(username) index.
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

const columns = `id, username, bio, game_preferences, email, address, rank, exp, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *PostgresStore) FindByID(ctx context.Context, id domain.PlayerID) (*models.Player, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+columns+` FROM players WHERE id = $1`, uuid.UUID(id))
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find player by id: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []domain.PlayerID) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}
	found, err := s.query(ctx, `SELECT `+columns+` FROM players WHERE id = ANY($1::uuid[])`,
		pq.Array(domain.PlayerIDStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("find players by ids: %w", err)
	}
	byID := make(map[domain.PlayerID]*models.Player, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*models.Player, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *PostgresStore) SearchByUsername(ctx context.Context, q string, limit int) ([]*models.Player, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
	found, err := s.query(ctx, `SELECT `+columns+` FROM players
		WHERE username ILIKE $1
		ORDER BY lower(username)
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return found, nil
}

func (s *PostgresStore) Save(ctx context.Context, p *models.Player) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO players (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			bio = EXCLUDED.bio,
			game_preferences = EXCLUDED.game_preferences,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			rank = EXCLUDED.rank,
			exp = EXCLUDED.exp`,
		uuid.UUID(p.ID), p.Username, p.Bio, pq.Array(p.GamePreferences),
		p.Email, p.Address, p.Rank, p.Exp, p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Player, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*models.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (*models.Player, error) {
	var (
		id    uuid.UUID
		prefs pq.StringArray
		p     models.Player
	)
	if err := row.Scan(&id, &p.Username, &p.Bio, &prefs, &p.Email, &p.Address, &p.Rank, &p.Exp, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = domain.PlayerID(id)
	p.GamePreferences = []string(prefs)
	if p.GamePreferences == nil {
		p.GamePreferences = []string{}
	}
	return &p, nil
}
