package service

import (
	"context"
	"errors"

	"arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/sentinel"
)

// StoreExternalGameInstance records the external session created for a
// lobby. Storing the same instance id twice is a no-op.
func (s *Service) StoreExternalGameInstance(ctx context.Context, lobbyID domain.LobbyID, game domain.GameID, gameType, instanceID string) (*models.ExternalGameInstance, error) {
	var stored *models.ExternalGameInstance
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lobbies.FindByID(ctx, lobbyID); err != nil {
			return translate(err, "lobby not found", "failed to load lobby")
		}
		existing, err := s.instances.FindByLobbyIDAndType(ctx, lobbyID, gameType)
		switch {
		case err == nil && existing.ExternalGameInstanceID == instanceID:
			stored = existing
			return nil
		case err == nil:
			return dErrors.New(dErrors.CodeConflict, "lobby already has an instance of this external game")
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load external game instance")
		}

		in, err := models.NewExternalGameInstance(lobbyID, game, gameType, instanceID, s.now())
		if err != nil {
			return err
		}
		if err := s.instances.Save(ctx, in); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "lobby already has an instance of this external game")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save external game instance")
		}
		stored = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "external game instance stored",
		"lobby_id", lobbyID,
		"external_game_type", stored.ExternalGameType,
		"external_instance_id", stored.ExternalGameInstanceID,
	)
	return stored, nil
}

// ExternalGameInstance returns the most recent mapping of the lobby.
func (s *Service) ExternalGameInstance(ctx context.Context, lobbyID domain.LobbyID) (*models.ExternalGameInstance, error) {
	in, err := s.instances.FindByLobbyID(ctx, lobbyID)
	if err != nil {
		return nil, translate(err, "no external game instance for lobby", "failed to load external game instance")
	}
	return in, nil
}

func (s *Service) ExternalGameInstanceByType(ctx context.Context, lobbyID domain.LobbyID, gameType string) (*models.ExternalGameInstance, error) {
	in, err := s.instances.FindByLobbyIDAndType(ctx, lobbyID, gameType)
	if err != nil {
		return nil, translate(err, "no external game instance for lobby", "failed to load external game instance")
	}
	return in, nil
}

// RemoveExternalGameInstance drops every mapping of the lobby. Removing
// nothing is not an error.
func (s *Service) RemoveExternalGameInstance(ctx context.Context, lobbyID domain.LobbyID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.instances.DeleteByLobbyID(ctx, lobbyID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove external game instance")
		}
		return nil
	})
}
