package ports

import (
	"context"

	"arcadia/internal/chat/models"
	"arcadia/pkg/domain"
)

type MessageStore interface {
	Save(ctx context.Context, m *models.Message) error
	// FindConversation pages the messages between a and b, newest first.
	FindConversation(ctx context.Context, a, b domain.PlayerID, page models.Page) ([]*models.Message, int, error)
	FindUnread(ctx context.Context, receiver, sender domain.PlayerID) ([]*models.Message, error)
	// FindPartners lists everyone user exchanged messages with, most recent
	// conversation first.
	FindPartners(ctx context.Context, user domain.PlayerID) ([]domain.PlayerID, error)
}
