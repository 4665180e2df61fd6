package service

import (
	"context"
	"log/slog"
	"time"

	aclports "arcadia/internal/acl/ports"
	chatevents "arcadia/internal/chat/events"
	"arcadia/internal/chat/models"
	"arcadia/internal/chat/ports"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/tx"
)

type Service struct {
	messages  ports.MessageStore
	players   aclports.PlayerContextPort
	tx        tx.Runner
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(messages ports.MessageStore, players aclports.PlayerContextPort, runner tx.Runner, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		messages:  messages,
		players:   players,
		tx:        runner,
		publisher: events.NewRecorder(publisher),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SendMessage(ctx context.Context, sender, receiver domain.PlayerID, content string) (*models.Message, error) {
	m, err := models.NewMessage(domain.NewMessageID(), sender, receiver, content, s.now())
	if err != nil {
		return nil, err
	}
	exists, err := s.players.PlayerExists(ctx, receiver)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up player")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "receiver not found")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.messages.Save(ctx, m); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save message")
		}
		s.publisher.Publish(ctx, chatevents.MessageSentEvent{
			MessageID:  m.ID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			SentAt:     m.SentAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "message sent", "message_id", m.ID, "sender_id", sender, "receiver_id", receiver)
	return m, nil
}

// Conversation pages the messages between user and other, newest first.
// Messages other sent to user are marked READ before the page is loaded.
func (s *Service) Conversation(ctx context.Context, user, other domain.PlayerID, page models.Page) (models.Conversation, error) {
	page = page.Normalize()
	var out models.Conversation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		unread, err := s.messages.FindUnread(ctx, user, other)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load unread messages")
		}
		now := s.now()
		for _, m := range unread {
			if !m.MarkRead(user, now) {
				continue
			}
			if err := s.messages.Save(ctx, m); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark message read")
			}
		}
		list, total, err := s.messages.FindConversation(ctx, user, other, page)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
		}
		out = models.Conversation{Messages: list, Total: total, Page: page}
		return nil
	})
	if err != nil {
		return models.Conversation{}, err
	}
	return out, nil
}

func (s *Service) ConversationPartners(ctx context.Context, user domain.PlayerID) ([]domain.PlayerID, error) {
	partners, err := s.messages.FindPartners(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation partners")
	}
	return partners, nil
}
