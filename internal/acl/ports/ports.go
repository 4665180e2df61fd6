// Package ports declares the translation contracts between modules. Each
// field that crosses a module boundary is re-declared here in the receiving
// side's vocabulary; no module's domain object leaves its module.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

import (
	"context"

	"arcadia/pkg/domain"
)

// PlayerInfo is the public projection of a player. It never carries email
// or address.
type PlayerInfo struct {
	PlayerID        domain.PlayerID `json:"playerId"`
	Username        string          `json:"username"`
	Bio             string          `json:"bio"`
	GamePreferences []string        `json:"gamePreferences"`
	Rank            int             `json:"rank"`
	Exp             int64           `json:"exp"`
}

// PlayerContextPort answers player questions for modules that do not own
// players.
type PlayerContextPort interface {
	FindPlayerIDsByUsername(ctx context.Context, username string) ([]domain.PlayerID, error)
	PlayerExists(ctx context.Context, player domain.PlayerID) (bool, error)
	// GetPlayerInfo reports found=false for an unknown player.
	GetPlayerInfo(ctx context.Context, player domain.PlayerID) (info PlayerInfo, found bool, err error)
	// GetPlayerInfos returns projections for the ids that exist, in request
	// order. Unknown ids are dropped without error.
	GetPlayerInfos(ctx context.Context, players []domain.PlayerID) ([]PlayerInfo, error)
}

// GameContextPort turns signals from the external game service into
// platform behaviour.
type GameContextPort interface {
	// HandleGameEnded publishes the game-ended domain event. Lobby reset and
	// achievement evaluation follow through their listeners.
	HandleGameEnded(ctx context.Context, lobby domain.LobbyID, winner *domain.PlayerID, participants []domain.PlayerID) error
	// HandleThirdPartyAchievementUnlocked registers the achievement on first
	// sight and grants it to the player.
	HandleThirdPartyAchievementUnlocked(ctx context.Context, game domain.GameID, player domain.PlayerID, code, name, description string) error
}
