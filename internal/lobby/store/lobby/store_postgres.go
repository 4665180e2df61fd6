package lobby

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	txcontext "arcadia/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists lobbies in PostgreSQL. Rosters are UUID[] columns so
// a lobby reads and writes as one row.
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

const lobbyColumns = `id, game_id, host_id, name, description, max_players, is_private, status,
	session_id, player_ids, invited_player_ids, created_at, started_at`

// FindByID locks the row when called inside a transaction, so concurrent
// read-modify-write use cases on one lobby run one after the other.
func (s *PostgresStore) FindByID(ctx context.Context, id domain.LobbyID) (*models.Lobby, error) {
	query := `SELECT ` + lobbyColumns + ` FROM lobbies WHERE id = $1`
	if _, ok := txcontext.From(ctx); ok {
		query += ` FOR UPDATE`
	}
	return s.queryOne(ctx, "find lobby by id", query, uuid.UUID(id))
}

func (s *PostgresStore) FindActiveByPlayer(ctx context.Context, player domain.PlayerID) (*models.Lobby, error) {
	query := `SELECT ` + lobbyColumns + ` FROM lobbies
		WHERE status IN ('WAITING', 'IN_PROGRESS') AND $1 = ANY(player_ids)
		ORDER BY created_at DESC, id
		LIMIT 1`
	return s.queryOne(ctx, "find active lobby by player", query, uuid.UUID(player))
}

func (s *PostgresStore) FindActiveByHost(ctx context.Context, host domain.PlayerID) (*models.Lobby, error) {
	query := `SELECT ` + lobbyColumns + ` FROM lobbies
		WHERE status IN ('WAITING', 'IN_PROGRESS') AND host_id = $1
		LIMIT 1`
	return s.queryOne(ctx, "find active lobby by host", query, uuid.UUID(host))
}

func (s *PostgresStore) FindBySessionID(ctx context.Context, session domain.SessionID) (*models.Lobby, error) {
	if session.IsNil() {
		return nil, sentinel.ErrNotFound
	}
	query := `SELECT ` + lobbyColumns + ` FROM lobbies WHERE session_id = $1`
	return s.queryOne(ctx, "find lobby by session", query, uuid.UUID(session))
}

func (s *PostgresStore) Search(ctx context.Context, filter models.SearchFilter, page models.Page) (models.Result, error) {
	page = page.Normalize()
	query := `SELECT ` + lobbyColumns + `, count(*) OVER () FROM lobbies
		WHERE status = 'WAITING'
		  AND cardinality(player_ids) < max_players
		  AND ($1::uuid IS NULL OR game_id = $1)
		  AND (cardinality($2::uuid[]) = 0 OR host_id = ANY($2::uuid[]))
		  AND ($3 OR NOT is_private)
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		nullUUID(uuid.UUID(filter.GameID)),
		pq.Array(domain.PlayerIDStrings(filter.HostIDs)),
		filter.IncludePrivate,
		page.Size,
		page.Offset(),
	)
	if err != nil {
		return models.Result{}, fmt.Errorf("search lobbies: %w", err)
	}
	defer rows.Close()

	res := models.Result{Lobbies: []*models.Lobby{}, Page: page}
	for rows.Next() {
		var row lobbyRow
		dest := append(row.dest(), &res.Total)
		if err := rows.Scan(dest...); err != nil {
			return models.Result{}, fmt.Errorf("scan lobby: %w", err)
		}
		l, err := row.toModel()
		if err != nil {
			return models.Result{}, err
		}
		res.Lobbies = append(res.Lobbies, l)
	}
	if err := rows.Err(); err != nil {
		return models.Result{}, fmt.Errorf("iterate lobbies: %w", err)
	}
	if len(res.Lobbies) == 0 && page.Offset() > 0 {
		if err := s.execer(ctx).QueryRowContext(ctx, `SELECT count(*) FROM lobbies
			WHERE status = 'WAITING'
			  AND cardinality(player_ids) < max_players
			  AND ($1::uuid IS NULL OR game_id = $1)
			  AND (cardinality($2::uuid[]) = 0 OR host_id = ANY($2::uuid[]))
			  AND ($3 OR NOT is_private)`,
			nullUUID(uuid.UUID(filter.GameID)),
			pq.Array(domain.PlayerIDStrings(filter.HostIDs)),
			filter.IncludePrivate,
		).Scan(&res.Total); err != nil {
			return models.Result{}, fmt.Errorf("count lobbies: %w", err)
		}
	}
	return res, nil
}

func (s *PostgresStore) Save(ctx context.Context, l *models.Lobby) error {
	const query = `
		INSERT INTO lobbies (id, game_id, host_id, name, description, max_players, is_private, status,
			session_id, player_ids, invited_player_ids, created_at, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			game_id = EXCLUDED.game_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			max_players = EXCLUDED.max_players,
			is_private = EXCLUDED.is_private,
			status = EXCLUDED.status,
			session_id = EXCLUDED.session_id,
			player_ids = EXCLUDED.player_ids,
			invited_player_ids = EXCLUDED.invited_player_ids,
			started_at = EXCLUDED.started_at
	`
	var startedAt sql.NullTime
	if l.StartedAt != nil {
		startedAt = sql.NullTime{Time: *l.StartedAt, Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(l.ID),
		nullUUID(uuid.UUID(l.GameID)),
		uuid.UUID(l.HostID),
		l.Name,
		l.Description,
		l.MaxPlayers,
		l.IsPrivate,
		string(l.Status),
		nullUUID(uuid.UUID(l.SessionID)),
		pq.Array(domain.PlayerIDStrings(l.PlayerIDs)),
		pq.Array(domain.PlayerIDStrings(l.InvitedPlayerIDs)),
		l.CreatedAt,
		startedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save lobby: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, op, query string, args ...any) (*models.Lobby, error) {
	var row lobbyRow
	if err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel()
}

type lobbyRow struct {
	ID          uuid.UUID
	GameID      uuid.NullUUID
	HostID      uuid.UUID
	Name        string
	Description string
	MaxPlayers  int
	IsPrivate   bool
	Status      string
	SessionID   uuid.NullUUID
	PlayerIDs   pq.StringArray
	InvitedIDs  pq.StringArray
	CreatedAt   time.Time
	StartedAt   sql.NullTime
}

func (r *lobbyRow) dest() []any {
	return []any{
		&r.ID, &r.GameID, &r.HostID, &r.Name, &r.Description, &r.MaxPlayers, &r.IsPrivate, &r.Status,
		&r.SessionID, &r.PlayerIDs, &r.InvitedIDs, &r.CreatedAt, &r.StartedAt,
	}
}

func (r *lobbyRow) toModel() (*models.Lobby, error) {
	status := models.Status(r.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("lobby %s: unknown status %q", r.ID, r.Status)
	}
	players, err := parsePlayerIDs(r.PlayerIDs)
	if err != nil {
		return nil, err
	}
	invited, err := parsePlayerIDs(r.InvitedIDs)
	if err != nil {
		return nil, err
	}
	l := &models.Lobby{
		ID:               domain.LobbyID(r.ID),
		HostID:           domain.PlayerID(r.HostID),
		Name:             r.Name,
		Description:      r.Description,
		MaxPlayers:       r.MaxPlayers,
		IsPrivate:        r.IsPrivate,
		Status:           status,
		PlayerIDs:        players,
		InvitedPlayerIDs: invited,
		CreatedAt:        r.CreatedAt,
	}
	if r.GameID.Valid {
		l.GameID = domain.GameID(r.GameID.UUID)
	}
	if r.SessionID.Valid {
		l.SessionID = domain.SessionID(r.SessionID.UUID)
	}
	if r.StartedAt.Valid {
		started := r.StartedAt.Time
		l.StartedAt = &started
	}
	return l, nil
}

func parsePlayerIDs(raw []string) ([]domain.PlayerID, error) {
	out := make([]domain.PlayerID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse player id %q: %w", s, err)
		}
		out = append(out, domain.PlayerID(id))
	}
	return out, nil
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
