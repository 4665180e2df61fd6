package adapters

import (
	"context"

	achievementports "arcadia/internal/achievements/ports"
	lobbymodels "arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

// LobbyReader is the slice of the lobby service the game resolver reads.
type LobbyReader interface {
	GetLobby(ctx context.Context, lobbyID domain.LobbyID) (*lobbymodels.Lobby, error)
}

// LobbyGameAdapter tells the achievements module which game a lobby played.
type LobbyGameAdapter struct {
	lobbies LobbyReader
}

var _ achievementports.GameResolver = (*LobbyGameAdapter)(nil)

func NewLobbyGameAdapter(lobbies LobbyReader) *LobbyGameAdapter {
	return &LobbyGameAdapter{lobbies: lobbies}
}

func (a *LobbyGameAdapter) ResolveGame(ctx context.Context, lobbyID domain.LobbyID) (achievementports.GameSession, error) {
	l, err := a.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		return achievementports.GameSession{}, err
	}
	if l.GameID.IsNil() {
		return achievementports.GameSession{}, dErrors.New(dErrors.CodeNotFound, "lobby never started a game")
	}
	session := achievementports.GameSession{GameID: l.GameID}
	if l.StartedAt != nil {
		started := *l.StartedAt
		session.StartedAt = &started
	}
	return session, nil
}
