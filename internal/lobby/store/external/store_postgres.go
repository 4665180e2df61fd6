package external

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	txcontext "arcadia/pkg/platform/tx"
)

// PostgresStore persists external game instance mappings.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, in *models.ExternalGameInstance) error {
	const query = `
		INSERT INTO external_game_instances (id, lobby_id, game_id, external_game_type, external_instance_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET external_instance_id = EXCLUDED.external_instance_id
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(in.ID),
		uuid.UUID(in.LobbyID),
		uuid.UUID(in.GameID),
		in.ExternalGameType,
		in.ExternalGameInstanceID,
		in.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save external game instance: %w", err)
	}
	return nil
}

const instanceColumns = `id, lobby_id, game_id, external_game_type, external_instance_id, created_at`

func (s *PostgresStore) FindByLobbyID(ctx context.Context, lobby domain.LobbyID) (*models.ExternalGameInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM external_game_instances
		WHERE lobby_id = $1 ORDER BY created_at DESC LIMIT 1`
	return s.queryOne(ctx, query, uuid.UUID(lobby))
}

func (s *PostgresStore) FindByLobbyIDAndType(ctx context.Context, lobby domain.LobbyID, gameType string) (*models.ExternalGameInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM external_game_instances
		WHERE lobby_id = $1 AND external_game_type = $2`
	return s.queryOne(ctx, query, uuid.UUID(lobby), gameType)
}

func (s *PostgresStore) DeleteByLobbyID(ctx context.Context, lobby domain.LobbyID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM external_game_instances WHERE lobby_id = $1`, uuid.UUID(lobby))
	if err != nil {
		return 0, fmt.Errorf("delete external game instances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete external game instances: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*models.ExternalGameInstance, error) {
	var (
		id, lobbyID, gameID uuid.UUID
		in                  models.ExternalGameInstance
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(
		&id, &lobbyID, &gameID, &in.ExternalGameType, &in.ExternalGameInstanceID, &in.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find external game instance: %w", err)
	}
	in.ID = domain.ExternalInstanceID(id)
	in.LobbyID = domain.LobbyID(lobbyID)
	in.GameID = domain.GameID(gameID)
	return &in, nil
}
