// Package ports declares the persistence contracts the lobby service is
// written against. Absent rows are reported as sentinel.ErrNotFound.
package ports

import (
	"context"

	"arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
)

type LobbyStore interface {
	FindByID(ctx context.Context, id domain.LobbyID) (*models.Lobby, error)
	// FindActiveByPlayer returns the WAITING or IN_PROGRESS lobby the player
	// is seated in.
	FindActiveByPlayer(ctx context.Context, player domain.PlayerID) (*models.Lobby, error)
	FindActiveByHost(ctx context.Context, host domain.PlayerID) (*models.Lobby, error)
	FindBySessionID(ctx context.Context, session domain.SessionID) (*models.Lobby, error)
	Search(ctx context.Context, filter models.SearchFilter, page models.Page) (models.Result, error)
	// Save inserts or replaces the lobby. A second active lobby for the same
	// host is rejected with sentinel.ErrConflict.
	Save(ctx context.Context, lobby *models.Lobby) error
}

type ExternalGameInstanceStore interface {
	// Save rejects a second mapping for the same lobby and game type with
	// sentinel.ErrConflict.
	Save(ctx context.Context, instance *models.ExternalGameInstance) error
	FindByLobbyID(ctx context.Context, lobby domain.LobbyID) (*models.ExternalGameInstance, error)
	FindByLobbyIDAndType(ctx context.Context, lobby domain.LobbyID, gameType string) (*models.ExternalGameInstance, error)
	// DeleteByLobbyID removes every mapping of the lobby and reports how many
	// were removed. Missing mappings are not an error.
	DeleteByLobbyID(ctx context.Context, lobby domain.LobbyID) (int, error)
}
