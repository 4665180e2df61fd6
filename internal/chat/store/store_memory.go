package store

import (
	"context"
	"sort"
	"sync"

	"arcadia/internal/chat/models"
	"arcadia/pkg/domain"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[domain.MessageID]models.Message
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{messages: make(map[domain.MessageID]models.Message)}
}

func (s *InMemoryStore) Save(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = *m
	return nil
}

func (s *InMemoryStore) FindConversation(_ context.Context, a, b domain.PlayerID, page models.Page) ([]*models.Message, int, error) {
	page = page.Normalize()
	matches := s.newestFirst(func(m *models.Message) bool { return m.Between(a, b) })
	total := len(matches)
	start := page.Offset()
	if start >= total {
		return []*models.Message{}, total, nil
	}
	return matches[start:min(start+page.Size, total)], total, nil
}

func (s *InMemoryStore) FindUnread(_ context.Context, receiver, sender domain.PlayerID) ([]*models.Message, error) {
	return s.newestFirst(func(m *models.Message) bool {
		return m.ReceiverID == receiver && m.SenderID == sender && m.Status != models.StatusRead
	}), nil
}

func (s *InMemoryStore) FindPartners(_ context.Context, user domain.PlayerID) ([]domain.PlayerID, error) {
	mine := s.newestFirst(func(m *models.Message) bool { return m.SenderID == user || m.ReceiverID == user })
	out := make([]domain.PlayerID, 0)
	for _, m := range mine {
		if other := m.Counterpart(user); !domain.ContainsPlayer(out, other) {
			out = append(out, other)
		}
	}
	return out, nil
}

func (s *InMemoryStore) newestFirst(match func(*models.Message) bool) []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Message, 0)
	for _, m := range s.messages {
		m := m
		if match(&m) {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out
}
