package models

import (
	"strings"
	"time"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

// ExternalGameInstance maps a lobby to the session the external game service
// created for it.
type ExternalGameInstance struct {
	ID                     domain.ExternalInstanceID
	LobbyID                domain.LobbyID
	GameID                 domain.GameID
	ExternalGameType       string
	ExternalGameInstanceID string
	CreatedAt              time.Time
}

func NewExternalGameInstance(lobby domain.LobbyID, game domain.GameID, gameType, instanceID string, now time.Time) (*ExternalGameInstance, error) {
	gameType = strings.TrimSpace(gameType)
	instanceID = strings.TrimSpace(instanceID)
	if lobby.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "lobby id is required")
	}
	if gameType == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "external game type is required")
	}
	if instanceID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "external game instance id is required")
	}
	return &ExternalGameInstance{
		ID:                     domain.NewExternalInstanceID(),
		LobbyID:                lobby,
		GameID:                 game,
		ExternalGameType:       gameType,
		ExternalGameInstanceID: instanceID,
		CreatedAt:              now,
	}, nil
}
