package external

import (
	"context"
	"sync"

	"arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

type key struct {
	lobby    domain.LobbyID
	gameType string
}

// InMemoryStore maps (lobby, external game type) to one instance.
type InMemoryStore struct {
	mu        sync.RWMutex
	instances map[key]models.ExternalGameInstance
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{instances: make(map[key]models.ExternalGameInstance)}
}

func (s *InMemoryStore) Save(_ context.Context, instance *models.ExternalGameInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{lobby: instance.LobbyID, gameType: instance.ExternalGameType}
	if existing, ok := s.instances[k]; ok && existing.ID != instance.ID {
		return sentinel.ErrConflict
	}
	s.instances[k] = *instance
	return nil
}

func (s *InMemoryStore) FindByLobbyID(_ context.Context, lobby domain.LobbyID) (*models.ExternalGameInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.ExternalGameInstance
	for k, inst := range s.instances {
		if k.lobby != lobby {
			continue
		}
		if found == nil || inst.CreatedAt.After(found.CreatedAt) {
			c := inst
			found = &c
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found, nil
}

func (s *InMemoryStore) FindByLobbyIDAndType(_ context.Context, lobby domain.LobbyID, gameType string) (*models.ExternalGameInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[key{lobby: lobby, gameType: gameType}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inst, nil
}

func (s *InMemoryStore) DeleteByLobbyID(_ context.Context, lobby domain.LobbyID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k := range s.instances {
		if k.lobby == lobby {
			delete(s.instances, k)
			removed++
		}
	}
	return removed, nil
}
