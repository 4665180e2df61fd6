package friendship

import (
	"context"
	"sort"
	"sync"

	"arcadia/internal/friends/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

type pairKey struct {
	lo, hi domain.PlayerID
}

func keyOf(a, b domain.PlayerID) pairKey {
	if a.String() > b.String() {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// InMemoryStore keeps friendships indexed by id and by unordered pair.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[domain.FriendshipID]models.Friendship
	byPair map[pairKey]domain.FriendshipID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[domain.FriendshipID]models.Friendship),
		byPair: make(map[pairKey]domain.FriendshipID),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.FriendshipID) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &f, nil
}

func (s *InMemoryStore) FindByPair(_ context.Context, a, b domain.PlayerID) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[keyOf(a, b)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	f := s.byID[id]
	return &f, nil
}

func (s *InMemoryStore) ExistsByPair(_ context.Context, a, b domain.PlayerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPair[keyOf(a, b)]
	return ok, nil
}

func (s *InMemoryStore) ListByUserAndStatus(_ context.Context, user domain.PlayerID, status models.Status, page models.Page) ([]*models.Friendship, int, error) {
	page = page.Normalize()
	matches := s.filter(func(f *models.Friendship) bool {
		return f.Status == status && f.InvolvesUser(user)
	})
	total := len(matches)
	start := page.Offset()
	if start >= total {
		return []*models.Friendship{}, total, nil
	}
	return matches[start:min(start+page.Size, total)], total, nil
}

func (s *InMemoryStore) ListIncomingByStatus(_ context.Context, user domain.PlayerID, status models.Status) ([]*models.Friendship, error) {
	return s.filter(func(f *models.Friendship) bool {
		return f.Status == status && f.IsAddressee(user)
	}), nil
}

func (s *InMemoryStore) Save(_ context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(f.RequesterID, f.AddresseeID)
	if existing, ok := s.byPair[k]; ok && existing != f.ID {
		return sentinel.ErrConflict
	}
	s.byID[f.ID] = *f
	s.byPair[k] = f.ID
	return nil
}

func (s *InMemoryStore) filter(match func(*models.Friendship) bool) []*models.Friendship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Friendship, 0)
	for _, f := range s.byID {
		f := f
		if match(&f) {
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
