//go:build integration

package friendship_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arcadia/internal/friends/models"
	"arcadia/internal/friends/store/friendship"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	"arcadia/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *friendship.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewMigratedPostgres(s.T())
	s.store = friendship.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx, "friendships"))
}

func (s *PostgresStoreSuite) TestUnorderedPairIsUnique() {
	a, b := domain.NewPlayerID(), domain.NewPlayerID()
	now := time.Now().UTC().Truncate(time.Microsecond)
	f, err := models.NewFriendRequest(a, b, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx, f))

	reverse, err := models.NewFriendRequest(b, a, now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Save(s.ctx, reverse), sentinel.ErrConflict)

	exists, err := s.store.ExistsByPair(s.ctx, b, a)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestStatusUpdateRoundTrip() {
	a, b := domain.NewPlayerID(), domain.NewPlayerID()
	now := time.Now().UTC().Truncate(time.Microsecond)
	f, err := models.NewFriendRequest(a, b, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx, f))

	s.Require().NoError(f.Accept(now.Add(time.Second)))
	s.Require().NoError(s.store.Save(s.ctx, f))

	found, err := s.store.FindByPair(s.ctx, b, a)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, found.Status)
	s.True(found.UpdatedAt.Equal(now.Add(time.Second)))

	list, total, err := s.store.ListByUserAndStatus(s.ctx, b, models.StatusAccepted, models.Page{})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(list, 1)

	_, err = s.store.FindByID(s.ctx, domain.NewFriendshipID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestBlockDirectionIsPersisted() {
	a, b := domain.NewPlayerID(), domain.NewPlayerID()
	now := time.Now().UTC().Truncate(time.Microsecond)
	f, err := models.NewFriendRequest(a, b, now)
	s.Require().NoError(err)
	s.Require().NoError(f.Accept(now))
	s.Require().NoError(s.store.Save(s.ctx, f))

	s.Require().NoError(f.Block(a, now.Add(time.Second)))
	s.Require().NoError(s.store.Save(s.ctx, f))

	found, err := s.store.FindByID(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusBlocked, found.Status)
	s.Equal(a, found.AddresseeID)
	s.Equal(b, found.RequesterID)
}
