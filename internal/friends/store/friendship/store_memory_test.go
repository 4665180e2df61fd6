package friendship

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arcadia/internal/friends/models"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) request(a, b domain.PlayerID, offset time.Duration) *models.Friendship {
	f, err := models.NewFriendRequest(a, b, s.now.Add(offset))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx, f))
	return f
}

func (s *InMemoryStoreSuite) TestPairLookupIsUnordered() {
	a, b := domain.NewPlayerID(), domain.NewPlayerID()
	f := s.request(a, b, 0)

	found, err := s.store.FindByPair(s.ctx, b, a)
	s.Require().NoError(err)
	s.Equal(f.ID, found.ID)

	exists, err := s.store.ExistsByPair(s.ctx, b, a)
	s.Require().NoError(err)
	s.True(exists)

	reverse, err := models.NewFriendRequest(b, a, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Save(s.ctx, reverse), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestMissing() {
	_, err := s.store.FindByID(s.ctx, domain.NewFriendshipID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByPair(s.ctx, domain.NewPlayerID(), domain.NewPlayerID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestLists() {
	me := domain.NewPlayerID()
	outgoing := s.request(me, domain.NewPlayerID(), 0)
	incoming := s.request(domain.NewPlayerID(), me, time.Minute)
	s.request(domain.NewPlayerID(), domain.NewPlayerID(), 2*time.Minute)

	s.Run("either party, newest first", func() {
		list, total, err := s.store.ListByUserAndStatus(s.ctx, me, models.StatusPending, models.Page{})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Require().Len(list, 2)
		s.Equal(incoming.ID, list[0].ID)
		s.Equal(outgoing.ID, list[1].ID)
	})

	s.Run("incoming only", func() {
		list, err := s.store.ListIncomingByStatus(s.ctx, me, models.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(incoming.ID, list[0].ID)
	})

	s.Run("paging", func() {
		list, total, err := s.store.ListByUserAndStatus(s.ctx, me, models.StatusPending, models.Page{Number: 1, Size: 1})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Require().Len(list, 1)
		s.Equal(outgoing.ID, list[0].ID)
	})
}
