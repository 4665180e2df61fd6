package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arcadia/internal/friends/models"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

type FriendshipSuite struct {
	suite.Suite
	now       time.Time
	requester domain.PlayerID
	addressee domain.PlayerID
}

func TestFriendshipSuite(t *testing.T) {
	suite.Run(t, new(FriendshipSuite))
}

func (s *FriendshipSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.requester = domain.NewPlayerID()
	s.addressee = domain.NewPlayerID()
}

func (s *FriendshipSuite) in(status models.Status) *models.Friendship {
	f, err := models.NewFriendRequest(s.requester, s.addressee, s.now)
	s.Require().NoError(err)
	f.Status = status
	return f
}

var allStatuses = []models.Status{
	models.StatusPending, models.StatusAccepted, models.StatusRejected, models.StatusBlocked,
}

func (s *FriendshipSuite) TestNewFriendRequest() {
	f, err := models.NewFriendRequest(s.requester, s.addressee, s.now)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, f.Status)
	s.False(f.IsActive())

	_, err = models.NewFriendRequest(s.requester, s.requester, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}

func (s *FriendshipSuite) TestAccept() {
	for _, status := range allStatuses {
		s.Run(string(status), func() {
			f := s.in(status)
			err := f.Accept(s.now.Add(time.Minute))
			if status == models.StatusPending {
				s.Require().NoError(err)
				s.Equal(models.StatusAccepted, f.Status)
				s.True(f.IsActive())
				s.Equal(s.now.Add(time.Minute), f.UpdatedAt)
				return
			}
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidOperation))
			s.Equal(status, f.Status)
		})
	}
}

func (s *FriendshipSuite) TestReject() {
	for _, status := range allStatuses {
		s.Run(string(status), func() {
			f := s.in(status)
			err := f.Reject(s.now)
			if status == models.StatusPending {
				s.Require().NoError(err)
				s.Equal(models.StatusRejected, f.Status)
				return
			}
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidOperation))
		})
	}
}

func (s *FriendshipSuite) TestBlockAlwaysSucceeds() {
	for _, status := range allStatuses {
		s.Run(string(status), func() {
			f := s.in(status)
			s.Require().NoError(f.Block(s.addressee, s.now))
			s.Equal(models.StatusBlocked, f.Status)
		})
	}
}

func (s *FriendshipSuite) TestBlockRecordsTheBlocker() {
	s.Run("requester becomes the addressee", func() {
		f := s.in(models.StatusAccepted)
		s.Require().NoError(f.Block(s.requester, s.now))
		s.True(f.IsAddressee(s.requester))
		s.True(f.IsRequester(s.addressee))
		s.True(dErrors.HasCode(f.Unblock(s.addressee, s.now), dErrors.CodeInvalidOperation))
		s.Require().NoError(f.Unblock(s.requester, s.now))
	})

	s.Run("an existing block keeps its blocker", func() {
		f := s.in(models.StatusAccepted)
		s.Require().NoError(f.Block(s.addressee, s.now))
		s.Require().NoError(f.Block(s.requester, s.now))
		s.True(f.IsAddressee(s.addressee))
	})

	s.Run("outsiders cannot block", func() {
		f := s.in(models.StatusAccepted)
		s.True(dErrors.HasCode(f.Block(domain.NewPlayerID(), s.now), dErrors.CodeInvalidOperation))
		s.Equal(models.StatusAccepted, f.Status)
	})
}

func (s *FriendshipSuite) TestTerminalStatesNeverReturnToPending() {
	for _, status := range []models.Status{models.StatusRejected, models.StatusBlocked} {
		f := s.in(status)
		s.Error(f.Accept(s.now))
		s.Error(f.Reject(s.now))
		s.Error(f.Cancel(s.requester, s.now))
		s.NotEqual(models.StatusPending, f.Status)
	}
}

func (s *FriendshipSuite) TestRoleGuardedTransitions() {
	s.Run("cancel by requester only", func() {
		f := s.in(models.StatusPending)
		s.True(dErrors.HasCode(f.Cancel(s.addressee, s.now), dErrors.CodeInvalidOperation))
		s.Require().NoError(f.Cancel(s.requester, s.now))
		s.Equal(models.StatusRejected, f.Status)
	})

	s.Run("remove by either party", func() {
		f := s.in(models.StatusAccepted)
		s.True(dErrors.HasCode(f.Remove(domain.NewPlayerID(), s.now), dErrors.CodeInvalidOperation))
		s.Require().NoError(f.Remove(s.addressee, s.now))
		s.Equal(models.StatusRejected, f.Status)
	})

	s.Run("unblock by addressee only", func() {
		f := s.in(models.StatusBlocked)
		s.True(dErrors.HasCode(f.Unblock(s.requester, s.now), dErrors.CodeInvalidOperation))
		s.Require().NoError(f.Unblock(s.addressee, s.now))
		s.Equal(models.StatusRejected, f.Status)
	})

	s.Run("new block lets the blocker unblock", func() {
		f, err := models.NewBlock(s.requester, s.addressee, s.now)
		s.Require().NoError(err)
		s.Equal(models.StatusBlocked, f.Status)
		s.NoError(f.Unblock(s.requester, s.now))
	})
}

func (s *FriendshipSuite) TestOtherUser() {
	f := s.in(models.StatusPending)

	other, err := f.OtherUser(s.requester)
	s.Require().NoError(err)
	s.Equal(s.addressee, other)

	other, err = f.OtherUser(s.addressee)
	s.Require().NoError(err)
	s.Equal(s.requester, other)

	_, err = f.OtherUser(domain.NewPlayerID())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))

	s.True(f.InvolvesUser(s.requester))
	s.True(f.InvolvesUser(s.addressee))
	s.False(f.InvolvesUser(domain.NewPlayerID()))
}

func (s *FriendshipSuite) TestParse() {
	st, err := models.ParseStatus("ACCEPTED")
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, st)
	_, err = models.ParseStatus("FRENEMY")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))

	a, err := models.ParseAction("UNBLOCK")
	s.Require().NoError(err)
	s.Equal(models.ActionUnblock, a)
}
