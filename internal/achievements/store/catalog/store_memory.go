package catalog

import (
	"context"
	"sort"
	"sync"

	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

type codeKey struct {
	game domain.GameID
	code string
}

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.AchievementID]models.Achievement
	byCode  map[codeKey]domain.AchievementID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[domain.AchievementID]models.Achievement),
		byCode:  make(map[codeKey]domain.AchievementID),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AchievementID) (*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

func (s *InMemoryStore) FindByGame(_ context.Context, game domain.GameID) ([]*models.Achievement, error) {
	return s.filter(func(a *models.Achievement) bool { return a.GameID == game }), nil
}

func (s *InMemoryStore) FindByGameAndCode(_ context.Context, game domain.GameID, code string) (*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[codeKey{game, code}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	a := s.entries[id]
	return &a, nil
}

func (s *InMemoryStore) FindAll(_ context.Context) ([]*models.Achievement, error) {
	return s.filter(func(*models.Achievement) bool { return true }), nil
}

func (s *InMemoryStore) Save(_ context.Context, a *models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Code != "" {
		k := codeKey{a.GameID, a.Code}
		if holder, ok := s.byCode[k]; ok && holder != a.ID {
			return sentinel.ErrConflict
		}
		s.byCode[k] = a.ID
	}
	s.entries[a.ID] = *a
	return nil
}

// filter returns matches in creation order.
func (s *InMemoryStore) filter(match func(*models.Achievement) bool) []*models.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Achievement, 0)
	for _, a := range s.entries {
		a := a
		if match(&a) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
