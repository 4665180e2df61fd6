// Package service implements the lobby use cases. Every use case runs in one
// tx.Runner boundary and records its events there, so listeners only see
// events of committed state changes, in the order they were produced.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	lobbyevents "arcadia/internal/lobby/events"
	"arcadia/internal/lobby/metrics"
	"arcadia/internal/lobby/models"
	"arcadia/internal/lobby/ports"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/sentinel"
	"arcadia/pkg/platform/tx"
)

const defaultMinPlayers = 2

// Service orchestrates the lobby lifecycle.
type Service struct {
	lobbies    ports.LobbyStore
	instances  ports.ExternalGameInstanceStore
	tx         tx.Runner
	publisher  events.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	minPlayers int
	now        func() time.Time
	newSession func() domain.SessionID
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMinPlayers sets how many seated players a lobby needs to start.
func WithMinPlayers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minPlayers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(next func() domain.SessionID) Option {
	return func(s *Service) {
		if next != nil {
			s.newSession = next
		}
	}
}

// New constructs a Service. publisher receives committed events.
func New(lobbies ports.LobbyStore, instances ports.ExternalGameInstanceStore, runner tx.Runner, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		lobbies:    lobbies,
		instances:  instances,
		tx:         runner,
		publisher:  events.NewRecorder(publisher),
		logger:     slog.Default(),
		minPlayers: defaultMinPlayers,
		now:        time.Now,
		newSession: domain.NewSessionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLobby opens a WAITING lobby with the host seated.
func (s *Service) CreateLobby(ctx context.Context, host domain.PlayerID, name, description string, maxPlayers int, isPrivate bool) (*models.Lobby, error) {
	var created *models.Lobby
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNotSeated(ctx, host, domain.LobbyID{}); err != nil {
			return err
		}
		l, err := models.NewLobby(domain.NewLobbyID(), host, name, description, maxPlayers, isPrivate, s.now())
		if err != nil {
			return err
		}
		if err := s.lobbies.Save(ctx, l); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeInvalidOperation, "host already has an active lobby")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save lobby")
		}
		s.publisher.Publish(ctx, lobbyevents.LobbyCreatedEvent{
			LobbyID:    l.ID,
			GameID:     lobbyevents.OptionalGameID(l.GameID),
			HostID:     l.HostID,
			MaxPlayers: l.MaxPlayers,
			CreatedAt:  l.CreatedAt,
		})
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "lobby created", "lobby_id", created.ID, "host_id", host, "private", isPrivate)
	return created, nil
}

// InviteToLobby records an invitation. A lobby the caller does not host is
// reported as not found.
func (s *Service) InviteToLobby(ctx context.Context, lobbyID domain.LobbyID, host, invited domain.PlayerID) (*models.Lobby, error) {
	return s.mutate(ctx, lobbyID, func(ctx context.Context, l *models.Lobby) (bool, error) {
		if !l.IsHost(host) {
			return false, dErrors.New(dErrors.CodeNotFound, "lobby not found for host")
		}
		if err := l.Invite(invited); err != nil {
			return false, err
		}
		s.publisher.Publish(ctx, lobbyevents.LobbyInviteEvent{
			LobbyID:         l.ID,
			GameID:          lobbyevents.OptionalGameID(l.GameID),
			HostID:          l.HostID,
			InvitedPlayerID: invited,
		})
		return true, nil
	})
}

// JoinLobby seats a player. A player seated in another active lobby must
// leave it first.
func (s *Service) JoinLobby(ctx context.Context, lobbyID domain.LobbyID, player domain.PlayerID) (*models.Lobby, error) {
	return s.mutate(ctx, lobbyID, func(ctx context.Context, l *models.Lobby) (bool, error) {
		if err := s.ensureNotSeated(ctx, player, l.ID); err != nil {
			return false, err
		}
		if err := l.Join(player); err != nil {
			return false, err
		}
		s.publisher.Publish(ctx, lobbyevents.PlayerJoinedLobbyEvent{LobbyID: l.ID, PlayerID: player})
		return true, nil
	})
}

// LeaveLobby removes a player. Leaving a lobby the player is not part of
// returns the lobby unchanged and emits nothing.
func (s *Service) LeaveLobby(ctx context.Context, lobbyID domain.LobbyID, player domain.PlayerID) (*models.Lobby, error) {
	return s.mutate(ctx, lobbyID, func(ctx context.Context, l *models.Lobby) (bool, error) {
		if !l.HasPlayer(player) && !l.IsInvited(player) {
			return false, nil
		}
		wasActive := l.IsActive()
		l.Leave(player)
		if wasActive && !l.IsActive() {
			s.metrics.IncrementCancelled()
			s.logger.InfoContext(ctx, "lobby cancelled by host", "lobby_id", l.ID)
		}
		s.publisher.Publish(ctx, lobbyevents.PlayerLeftLobbyEvent{LobbyID: l.ID, PlayerID: player})
		return true, nil
	})
}

// StartLobby moves the lobby into a fresh game session.
func (s *Service) StartLobby(ctx context.Context, lobbyID domain.LobbyID, host domain.PlayerID, game domain.GameID) (*models.Lobby, error) {
	if game.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "game id is required to start lobby")
	}
	l, err := s.mutate(ctx, lobbyID, func(ctx context.Context, l *models.Lobby) (bool, error) {
		if !l.IsHost(host) {
			return false, dErrors.New(dErrors.CodeInvalidOperation, "only the host can start the lobby")
		}
		if err := l.Start(game, s.newSession(), s.minPlayers, s.now()); err != nil {
			return false, err
		}
		s.publisher.Publish(ctx, lobbyevents.LobbyStartedEvent{
			LobbyID:   l.ID,
			GameID:    l.GameID,
			PlayerIDs: append([]domain.PlayerID(nil), l.PlayerIDs...),
			StartedAt: *l.StartedAt,
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementStarted()
	s.logger.InfoContext(ctx, "lobby started",
		"lobby_id", l.ID,
		"game_id", l.GameID,
		"session_id", l.SessionID,
		"players", len(l.PlayerIDs),
	)
	return l, nil
}

// UpdateLobby renames a WAITING lobby. Host only.
func (s *Service) UpdateLobby(ctx context.Context, lobbyID domain.LobbyID, host domain.PlayerID, name, description string) (*models.Lobby, error) {
	return s.mutate(ctx, lobbyID, func(_ context.Context, l *models.Lobby) (bool, error) {
		if !l.IsHost(host) {
			return false, dErrors.New(dErrors.CodeInvalidOperation, "only the host can update the lobby")
		}
		return true, l.Rename(name, description)
	})
}

// ResetAfterGameEnd returns the lobby to WAITING and drops its external game
// mapping. Cancelled lobbies stay cancelled: reopening one could give its
// host a second active lobby.
func (s *Service) ResetAfterGameEnd(ctx context.Context, lobbyID domain.LobbyID) (*models.Lobby, error) {
	reset := false
	l, err := s.mutate(ctx, lobbyID, func(ctx context.Context, l *models.Lobby) (bool, error) {
		if l.Status == models.StatusCancelled {
			s.logger.WarnContext(ctx, "game ended for cancelled lobby, not reopening", "lobby_id", l.ID)
			return false, nil
		}
		if _, err := s.instances.DeleteByLobbyID(ctx, l.ID); err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove external game instance")
		}
		if l.Status == models.StatusWaiting && !l.HasSession() {
			return false, nil
		}
		l.ResetAfterGameEnd()
		reset = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if reset {
		s.metrics.IncrementReset()
		s.logger.InfoContext(ctx, "lobby reset after game end", "lobby_id", l.ID)
	}
	return l, nil
}

func (s *Service) GetLobby(ctx context.Context, lobbyID domain.LobbyID) (*models.Lobby, error) {
	l, err := s.lobbies.FindByID(ctx, lobbyID)
	if err != nil {
		return nil, translate(err, "lobby not found", "failed to load lobby")
	}
	return l, nil
}

// GetPlayerLobby returns the active lobby the player is seated in.
func (s *Service) GetPlayerLobby(ctx context.Context, player domain.PlayerID) (*models.Lobby, error) {
	l, err := s.lobbies.FindActiveByPlayer(ctx, player)
	if err != nil {
		return nil, translate(err, "player is not in an active lobby", "failed to load player lobby")
	}
	return l, nil
}

// GetLobbyBySession resolves the lobby playing a game session.
func (s *Service) GetLobbyBySession(ctx context.Context, session domain.SessionID) (*models.Lobby, error) {
	l, err := s.lobbies.FindBySessionID(ctx, session)
	if err != nil {
		return nil, translate(err, "no lobby for session", "failed to load lobby by session")
	}
	return l, nil
}

// SearchLobbies lists joinable lobbies, newest first.
func (s *Service) SearchLobbies(ctx context.Context, filter models.SearchFilter, page models.Page) (models.Result, error) {
	res, err := s.lobbies.Search(ctx, filter, page.Normalize())
	if err != nil {
		return models.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search lobbies")
	}
	return res, nil
}

// mutate loads the lobby inside a boundary, applies fn and saves the lobby
// when fn reports a change.
func (s *Service) mutate(ctx context.Context, lobbyID domain.LobbyID, fn func(ctx context.Context, l *models.Lobby) (bool, error)) (*models.Lobby, error) {
	var out *models.Lobby
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		l, err := s.lobbies.FindByID(ctx, lobbyID)
		if err != nil {
			return translate(err, "lobby not found", "failed to load lobby")
		}
		changed, err := fn(ctx, l)
		if err != nil {
			return err
		}
		if changed {
			if err := s.lobbies.Save(ctx, l); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.New(dErrors.CodeConflict, "lobby was changed concurrently")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save lobby")
			}
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ensureNotSeated(ctx context.Context, player domain.PlayerID, except domain.LobbyID) error {
	current, err := s.lobbies.FindActiveByPlayer(ctx, player)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check player lobby")
	case current.ID == except:
		return nil
	default:
		return dErrors.New(dErrors.CodeInvalidOperation,
			"player is already in an active lobby; leave it before joining another one")
	}
}

func translate(err error, notFound, internal string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
