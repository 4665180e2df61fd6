package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"arcadia/internal/player/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	players    map[domain.PlayerID]*models.Player
	byUsername map[string]domain.PlayerID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		players:    make(map[domain.PlayerID]*models.Player),
		byUsername: make(map[string]domain.PlayerID),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.PlayerID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// FindByIDs returns the players that exist, in the order of ids. Unknown
// and repeated ids are skipped.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []domain.PlayerID) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Player, 0, len(ids))
	seen := make(map[domain.PlayerID]bool, len(ids))
	for _, id := range ids {
		p, ok := s.players[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) SearchByUsername(_ context.Context, q string, limit int) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Player, 0)
	for _, p := range s.players {
		if p.MatchesUsername(q) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(p.Username)
	if holder, ok := s.byUsername[key]; ok && holder != p.ID {
		return sentinel.ErrConflict
	}
	if prev, ok := s.players[p.ID]; ok {
		delete(s.byUsername, strings.ToLower(prev.Username))
	}
	s.players[p.ID] = p.Clone()
	s.byUsername[key] = p.ID
	return nil
}
