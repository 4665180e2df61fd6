// Package ports declares the friendship persistence contract.
package ports

import (
	"context"

	"arcadia/internal/friends/models"
	"arcadia/pkg/domain"
)

// FriendshipStore persists friendships. Lookups of absent rows return
// sentinel.ErrNotFound; Save of a second row for an unordered pair returns
// sentinel.ErrConflict. Lists are ordered newest first.
type FriendshipStore interface {
	FindByID(ctx context.Context, id domain.FriendshipID) (*models.Friendship, error)
	// FindByPair matches the pair in either direction.
	FindByPair(ctx context.Context, a, b domain.PlayerID) (*models.Friendship, error)
	ExistsByPair(ctx context.Context, a, b domain.PlayerID) (bool, error)
	// ListByUserAndStatus matches friendships where user is either party.
	ListByUserAndStatus(ctx context.Context, user domain.PlayerID, status models.Status, page models.Page) ([]*models.Friendship, int, error)
	// ListIncomingByStatus matches friendships addressed to user.
	ListIncomingByStatus(ctx context.Context, user domain.PlayerID, status models.Status) ([]*models.Friendship, error)
	Save(ctx context.Context, f *models.Friendship) error
}
