// Package events subscribes the achievements module to game endings.
package events

import (
	"context"
	"log/slog"

	"arcadia/internal/achievements/ports"
	"arcadia/internal/achievements/service"
	shared "arcadia/internal/shared/events"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
)

type Evaluator interface {
	EvaluateGameEnded(ctx context.Context, req service.EvaluationRequest) (service.EvaluationResult, error)
}

// GameEndedListener evaluates achievements for every participant once a
// game has ended. Nothing it does is reported back to the publisher.
type GameEndedListener struct {
	games     ports.GameResolver
	evaluator Evaluator
	logger    *slog.Logger
}

func NewGameEndedListener(games ports.GameResolver, evaluator Evaluator, logger *slog.Logger) *GameEndedListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameEndedListener{games: games, evaluator: evaluator, logger: logger}
}

func (l *GameEndedListener) Register(bus *events.Bus, opts ...events.SubscribeOption) {
	events.On(bus, "achievements.evaluate-game-ended", l.Handle, opts...)
}

func (l *GameEndedListener) Handle(ctx context.Context, evt shared.GameEndedDomainEvent) error {
	session, err := l.games.ResolveGame(ctx, evt.LobbyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			l.logger.WarnContext(ctx, "game ended for lobby without a game, skipping evaluation", "lobby_id", evt.LobbyID)
			return nil
		}
		l.logger.ErrorContext(ctx, "failed to resolve game for ended lobby", "lobby_id", evt.LobbyID, "error", err)
		return nil
	}

	res, err := l.evaluator.EvaluateGameEnded(ctx, service.EvaluationRequest{
		GameID:    session.GameID,
		LobbyID:   evt.LobbyID,
		WinnerID:  evt.WinnerID,
		PlayerIDs: evt.PlayerIDs,
		StartedAt: session.StartedAt,
	})
	if err != nil {
		l.logger.ErrorContext(ctx, "achievement evaluation failed", "lobby_id", evt.LobbyID, "granted", len(res.Granted), "error", err)
		return nil
	}
	return nil
}
