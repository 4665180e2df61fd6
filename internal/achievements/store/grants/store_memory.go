package grants

import (
	"context"
	"sort"
	"sync"

	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

type grantKey struct {
	player      domain.PlayerID
	achievement domain.AchievementID
}

type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey]models.UserAchievement
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{grants: make(map[grantKey]models.UserAchievement)}
}

func (s *InMemoryStore) ExistsByPlayerAndAchievement(_ context.Context, player domain.PlayerID, achievement domain.AchievementID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey{player, achievement}]
	return ok, nil
}

func (s *InMemoryStore) ListByPlayer(_ context.Context, player domain.PlayerID) ([]*models.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserAchievement, 0)
	for k, ua := range s.grants {
		if k.player == player {
			ua := ua
			out = append(out, &ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.After(out[j].UnlockedAt) })
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, ua *models.UserAchievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := grantKey{ua.PlayerID, ua.AchievementID}
	if _, ok := s.grants[k]; ok {
		return sentinel.ErrConflict
	}
	s.grants[k] = *ua
	return nil
}

// Count is used by tests asserting the one-grant-per-pair property.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.grants)
}
