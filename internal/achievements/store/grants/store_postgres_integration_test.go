//go:build integration

package grants_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arcadia/internal/achievements/models"
	"arcadia/internal/achievements/store/catalog"
	"arcadia/internal/achievements/store/grants"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/sentinel"
	"arcadia/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	catalog  *catalog.PostgresStore
	grants   *grants.PostgresStore
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
	s.catalog = catalog.NewPostgres(s.postgres.DB)
	s.grants = grants.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx, "user_achievements", "achievements"))
}

func (s *PostgresStoreSuite) thirdParty(game domain.GameID, code string) *models.Achievement {
	a, err := models.NewThirdPartyAchievement(domain.NewAchievementID(), game, code, "", "", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return a
}

func (s *PostgresStoreSuite) TestCatalogCodeUniquePerGame() {
	game := domain.NewGameID()
	a := s.thirdParty(game, "FORK")
	s.Require().NoError(s.catalog.Save(s.ctx, a))
	s.ErrorIs(s.catalog.Save(s.ctx, s.thirdParty(game, "FORK")), sentinel.ErrConflict)
	s.NoError(s.catalog.Save(s.ctx, s.thirdParty(domain.NewGameID(), "FORK")))

	got, err := s.catalog.FindByGameAndCode(s.ctx, game, "FORK")
	s.Require().NoError(err)
	s.Equal(a, got)
}

func (s *PostgresStoreSuite) TestGrantUniquePerPlayer() {
	a := s.thirdParty(domain.NewGameID(), "PIN")
	s.Require().NoError(s.catalog.Save(s.ctx, a))
	player := domain.NewPlayerID()

	ua := &models.UserAchievement{ID: domain.NewUserAchievementID(), PlayerID: player, AchievementID: a.ID, UnlockedAt: time.Now().UTC()}
	s.Require().NoError(s.grants.Save(s.ctx, ua))
	dup := &models.UserAchievement{ID: domain.NewUserAchievementID(), PlayerID: player, AchievementID: a.ID, UnlockedAt: time.Now().UTC()}
	s.ErrorIs(s.grants.Save(s.ctx, dup), sentinel.ErrConflict)

	exists, err := s.grants.ExistsByPlayerAndAchievement(s.ctx, player, a.ID)
	s.Require().NoError(err)
	s.True(exists)

	list, err := s.grants.ListByPlayer(s.ctx, player)
	s.Require().NoError(err)
	s.Len(list, 1)
}
