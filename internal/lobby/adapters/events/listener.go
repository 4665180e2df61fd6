// Package events subscribes the lobby module to events owned by others.
package events

import (
	"context"
	"log/slog"

	"arcadia/internal/lobby/models"
	shared "arcadia/internal/shared/events"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
)

// LobbyResetter is the slice of the lobby service the listener drives.
type LobbyResetter interface {
	ResetAfterGameEnd(ctx context.Context, lobbyID domain.LobbyID) (*models.Lobby, error)
}

// GameEndedListener returns a lobby to WAITING once its game has ended.
// Failures are logged and swallowed: the game is already over for the
// players and there is no caller to report to.
type GameEndedListener struct {
	lobbies LobbyResetter
	logger  *slog.Logger
}

func NewGameEndedListener(lobbies LobbyResetter, logger *slog.Logger) *GameEndedListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameEndedListener{lobbies: lobbies, logger: logger}
}

// Register subscribes the listener on bus.
func (l *GameEndedListener) Register(bus *events.Bus, opts ...events.SubscribeOption) {
	events.On(bus, "lobby.reset-after-game-end", l.Handle, opts...)
}

func (l *GameEndedListener) Handle(ctx context.Context, evt shared.GameEndedDomainEvent) error {
	l.logger.InfoContext(ctx, "game ended, resetting lobby", "lobby_id", evt.LobbyID)

	_, err := l.lobbies.ResetAfterGameEnd(ctx, evt.LobbyID)
	switch {
	case err == nil:
		return nil
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		l.logger.WarnContext(ctx, "game ended for unknown lobby, dropping event", "lobby_id", evt.LobbyID)
		return nil
	case dErrors.HasCode(err, dErrors.CodeInternal), dErrors.HasCode(err, dErrors.CodeTimeout):
		// Transient: hand back to the bus so a configured retry policy applies.
		return err
	default:
		l.logger.ErrorContext(ctx, "failed to reset lobby after game end", "lobby_id", evt.LobbyID, "error", err)
		return nil
	}
}
