package ports

import (
	"context"

	"arcadia/internal/player/models"
	"arcadia/pkg/domain"
)

// PlayerStore persists player profiles. Usernames are unique ignoring case;
// Save returns sentinel.ErrConflict when another player holds the name.
type PlayerStore interface {
	FindByID(ctx context.Context, id domain.PlayerID) (*models.Player, error)
	FindByIDs(ctx context.Context, ids []domain.PlayerID) ([]*models.Player, error)
	SearchByUsername(ctx context.Context, q string, limit int) ([]*models.Player, error)
	Save(ctx context.Context, p *models.Player) error
}
