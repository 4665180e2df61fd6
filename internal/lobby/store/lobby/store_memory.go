package lobby

import (
	"context"
	"sort"
	"sync"

	"arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

// InMemoryStore keeps lobbies in a map. Lobbies handed out are copies, so a
// caller mutating one must Save it for the change to become visible.
type InMemoryStore struct {
	mu      sync.RWMutex
	lobbies map[domain.LobbyID]*models.Lobby
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{lobbies: make(map[domain.LobbyID]*models.Lobby)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.LobbyID) (*models.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lobbies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *InMemoryStore) FindActiveByPlayer(_ context.Context, player domain.PlayerID) (*models.Lobby, error) {
	return s.findFirst(func(l *models.Lobby) bool {
		return l.IsActive() && l.HasPlayer(player)
	})
}

func (s *InMemoryStore) FindActiveByHost(_ context.Context, host domain.PlayerID) (*models.Lobby, error) {
	return s.findFirst(func(l *models.Lobby) bool {
		return l.IsActive() && l.HostID == host
	})
}

func (s *InMemoryStore) FindBySessionID(_ context.Context, session domain.SessionID) (*models.Lobby, error) {
	if session.IsNil() {
		return nil, sentinel.ErrNotFound
	}
	return s.findFirst(func(l *models.Lobby) bool {
		return l.SessionID == session
	})
}

func (s *InMemoryStore) Search(_ context.Context, filter models.SearchFilter, page models.Page) (models.Result, error) {
	page = page.Normalize()
	s.mu.RLock()
	matches := make([]*models.Lobby, 0)
	for _, l := range s.lobbies {
		if filter.Matches(l) {
			matches = append(matches, l)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matches)
	res := models.Result{Total: len(matches), Page: page}
	start := page.Offset()
	if start >= len(matches) {
		res.Lobbies = []*models.Lobby{}
		return res, nil
	}
	end := min(start+page.Size, len(matches))
	res.Lobbies = make([]*models.Lobby, 0, end-start)
	for _, l := range matches[start:end] {
		res.Lobbies = append(res.Lobbies, l.Clone())
	}
	return res, nil
}

func (s *InMemoryStore) Save(_ context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lobby.IsActive() {
		for id, other := range s.lobbies {
			if id != lobby.ID && other.IsActive() && other.HostID == lobby.HostID {
				return sentinel.ErrConflict
			}
		}
	}
	s.lobbies[lobby.ID] = lobby.Clone()
	return nil
}

func (s *InMemoryStore) findFirst(match func(*models.Lobby) bool) (*models.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []*models.Lobby
	for _, l := range s.lobbies {
		if match(l) {
			found = append(found, l)
		}
	}
	if len(found) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sortNewestFirst(found)
	return found[0].Clone(), nil
}

func sortNewestFirst(lobbies []*models.Lobby) {
	sort.Slice(lobbies, func(i, j int) bool {
		if lobbies[i].CreatedAt.Equal(lobbies[j].CreatedAt) {
			return lobbies[i].ID.String() < lobbies[j].ID.String()
		}
		return lobbies[i].CreatedAt.After(lobbies[j].CreatedAt)
	})
}
