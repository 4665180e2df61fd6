package statistics

import (
	"context"
	"sync"

	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
)

type statsKey struct {
	player domain.PlayerID
	game   domain.GameID
}

type InMemoryStore struct {
	mu    sync.RWMutex
	stats map[statsKey]*models.PlayerStatistics
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{stats: make(map[statsKey]*models.PlayerStatistics)}
}

func (s *InMemoryStore) Load(_ context.Context, player domain.PlayerID, game domain.GameID) (*models.PlayerStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.stats[statsKey{player, game}]; ok {
		return st.Clone(), nil
	}
	return models.NewPlayerStatistics(player, game), nil
}

func (s *InMemoryStore) Save(_ context.Context, st *models.PlayerStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[statsKey{st.PlayerID, st.GameID}] = st.Clone()
	return nil
}
