package adapters

import (
	"context"
	"log/slog"

	achievements "arcadia/internal/achievements/models"
	"arcadia/internal/acl/ports"
	shared "arcadia/internal/shared/events"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
)

// ThirdPartyRegistrar is the slice of the achievements service that third
// party unlocks drive.
type ThirdPartyRegistrar interface {
	RegisterThirdParty(ctx context.Context, game domain.GameID, code, name, description string) (*achievements.Achievement, error)
	GrantThirdParty(ctx context.Context, game domain.GameID, player domain.PlayerID, code string) (*achievements.UserAchievement, bool, error)
}

// GameContextAdapter turns external game signals into platform events and
// achievement grants.
type GameContextAdapter struct {
	publisher    events.Publisher
	achievements ThirdPartyRegistrar
	logger       *slog.Logger
}

var _ ports.GameContextPort = (*GameContextAdapter)(nil)

func NewGameContextAdapter(publisher events.Publisher, achievements ThirdPartyRegistrar, logger *slog.Logger) *GameContextAdapter {
	if publisher == nil {
		publisher = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GameContextAdapter{publisher: publisher, achievements: achievements, logger: logger}
}

func (a *GameContextAdapter) HandleGameEnded(ctx context.Context, lobby domain.LobbyID, winner *domain.PlayerID, participants []domain.PlayerID) error {
	if lobby.IsNil() {
		return dErrors.New(dErrors.CodeInvalidArgument, "lobby id is required")
	}
	if winner != nil && winner.IsNil() {
		winner = nil
	}
	roster := make([]domain.PlayerID, 0, len(participants))
	for _, p := range participants {
		if !p.IsNil() && !domain.ContainsPlayer(roster, p) {
			roster = append(roster, p)
		}
	}

	a.logger.InfoContext(ctx, "game ended",
		"lobby_id", lobby,
		"winner_id", winner,
		"participants", len(roster),
	)
	a.publisher.Publish(ctx, shared.GameEndedDomainEvent{
		LobbyID:   lobby,
		WinnerID:  winner,
		PlayerIDs: roster,
	})
	return nil
}

func (a *GameContextAdapter) HandleThirdPartyAchievementUnlocked(ctx context.Context, game domain.GameID, player domain.PlayerID, code, name, description string) error {
	if player.IsNil() {
		return dErrors.New(dErrors.CodeInvalidArgument, "player id is required")
	}
	if _, err := a.achievements.RegisterThirdParty(ctx, game, code, name, description); err != nil {
		return err
	}
	_, granted, err := a.achievements.GrantThirdParty(ctx, game, player, code)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "third-party achievement processed",
		"game_id", game,
		"player_id", player,
		"code", code,
		"granted", granted,
	)
	return nil
}
