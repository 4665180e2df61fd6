package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"arcadia/internal/player/store"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/tx"
	"arcadia/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = New(store.NewInMemory(), tx.NewMemoryRunner(nil), WithLogger(testutil.Logger(s.T())))
}

func (s *ServiceSuite) register(username string) domain.PlayerID {
	p, err := s.service.Register(s.ctx, RegisterCommand{Username: username, Email: username + "@example.com"})
	s.Require().NoError(err)
	return p.ID
}

func (s *ServiceSuite) TestRegister() {
	s.Run("normalizes the profile", func() {
		p, err := s.service.Register(s.ctx, RegisterCommand{
			Username:        "  Magnus ",
			Email:           "magnus@example.com",
			GamePreferences: []string{"chess", " Chess", "", "go"},
		})
		s.Require().NoError(err)
		s.Equal("Magnus", p.Username)
		s.Equal([]string{"chess", "go"}, p.GamePreferences)
		s.False(p.ID.IsNil())
	})

	s.Run("usernames are unique ignoring case", func() {
		_, err := s.service.Register(s.ctx, RegisterCommand{Username: "magnus"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("the same id cannot register twice", func() {
		id := domain.NewPlayerID()
		_, err := s.service.Register(s.ctx, RegisterCommand{ID: id, Username: "hikaru"})
		s.Require().NoError(err)
		_, err = s.service.Register(s.ctx, RegisterCommand{ID: id, Username: "nakamura"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects invalid input", func() {
		for _, cmd := range []RegisterCommand{
			{Username: ""},
			{Username: "two words"},
			{Username: "valid", Email: "not-an-email"},
		} {
			_, err := s.service.Register(s.ctx, cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument), "command %+v", cmd)
		}
	})
}

func (s *ServiceSuite) TestUpdate() {
	id := s.register("alice")
	bio := "endgame enjoyer"

	p, err := s.service.Update(s.ctx, id, UpdateCommand{Bio: &bio})
	s.Require().NoError(err)
	s.Equal(bio, p.Bio)

	p, err = s.service.Update(s.ctx, id, UpdateCommand{GamePreferences: []string{"chess"}})
	s.Require().NoError(err)
	s.Equal(bio, p.Bio, "nil bio keeps the current value")
	s.Equal([]string{"chess"}, p.GamePreferences)

	_, err = s.service.Update(s.ctx, domain.NewPlayerID(), UpdateCommand{Bio: &bio})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestQueries() {
	alice := s.register("alice")
	s.register("Malice")
	bob := s.register("bob")

	s.Run("search is case-insensitive contains", func() {
		found, err := s.service.SearchByUsername(s.ctx, "ALI")
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal("alice", found[0].Username)
		s.Equal("Malice", found[1].Username)
	})

	s.Run("empty search matches nothing", func() {
		found, err := s.service.SearchByUsername(s.ctx, " ")
		s.Require().NoError(err)
		s.Empty(found)
	})

	s.Run("get many skips unknown ids and keeps order", func() {
		found, err := s.service.GetMany(s.ctx, []domain.PlayerID{bob, domain.NewPlayerID(), alice, bob})
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal(bob, found[0].ID)
		s.Equal(alice, found[1].ID)
	})

	s.Run("get unknown player", func() {
		_, err := s.service.Get(s.ctx, domain.NewPlayerID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
