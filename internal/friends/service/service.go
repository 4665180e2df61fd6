package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	aclports "arcadia/internal/acl/ports"
	friendevents "arcadia/internal/friends/events"
	"arcadia/internal/friends/models"
	"arcadia/internal/friends/ports"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/sentinel"
	"arcadia/pkg/platform/tx"
)

// Service runs the friendship use cases. State transitions are synchronous
// and happen on the caller's goroutine.
type Service struct {
	friendships ports.FriendshipStore
	players     aclports.PlayerContextPort
	tx          tx.Runner
	publisher   events.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(friendships ports.FriendshipStore, players aclports.PlayerContextPort, runner tx.Runner, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		friendships: friendships,
		players:     players,
		tx:          runner,
		publisher:   events.NewRecorder(publisher),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendFriendRequest creates a PENDING friendship. Any existing row for the
// pair, whatever its status, blocks a new request.
func (s *Service) SendFriendRequest(ctx context.Context, requester, addressee domain.PlayerID) (*models.Friendship, error) {
	if requester == addressee {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "cannot send friend request to yourself")
	}
	exists, err := s.players.PlayerExists(ctx, addressee)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up player")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "player not found")
	}

	var created *models.Friendship
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		taken, err := s.friendships.ExistsByPair(ctx, requester, addressee)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check friendship")
		}
		if taken {
			return dErrors.New(dErrors.CodeInvalidOperation, "friendship already exists")
		}
		f, err := models.NewFriendRequest(requester, addressee, s.now())
		if err != nil {
			return err
		}
		if err := s.save(ctx, f); err != nil {
			return err
		}
		s.publisher.Publish(ctx, friendevents.FriendRequestEvent{RequesterID: requester, AddresseeID: addressee})
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "friend request sent", "friendship_id", created.ID, "requester_id", requester, "addressee_id", addressee)
	return created, nil
}

// PatchFriendship applies action on behalf of user.
//
// Role rules:
//   - accept, reject: addressee, PENDING only
//   - block: addressee from PENDING, either party from ACCEPTED
//   - cancel: requester, PENDING only
//   - remove: either party, ACCEPTED only
//   - unblock: addressee, BLOCKED only
func (s *Service) PatchFriendship(ctx context.Context, id domain.FriendshipID, user domain.PlayerID, action models.Action) (*models.Friendship, error) {
	var out *models.Friendship
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		f, err := s.friendships.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "friendship not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load friendship")
		}
		if !f.InvolvesUser(user) {
			return dErrors.New(dErrors.CodeInvalidOperation, "user is not part of this friendship")
		}
		if err := s.apply(f, user, action); err != nil {
			return err
		}
		if err := s.save(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "friendship updated", "friendship_id", id, "action", action, "status", out.Status)
	return out, nil
}

func (s *Service) apply(f *models.Friendship, user domain.PlayerID, action models.Action) error {
	now := s.now()
	switch action {
	case models.ActionAccept:
		if !f.IsAddressee(user) {
			return dErrors.New(dErrors.CodeInvalidOperation, "only the addressee can accept a friend request")
		}
		return f.Accept(now)
	case models.ActionReject:
		if !f.IsAddressee(user) {
			return dErrors.New(dErrors.CodeInvalidOperation, "only the addressee can reject a friend request")
		}
		return f.Reject(now)
	case models.ActionBlock:
		switch f.Status {
		case models.StatusPending:
			if !f.IsAddressee(user) {
				return dErrors.New(dErrors.CodeInvalidOperation, "only the addressee can block a pending friend request")
			}
		case models.StatusAccepted:
		default:
			return dErrors.New(dErrors.CodeInvalidOperation, "cannot block from status "+string(f.Status))
		}
		return f.Block(user, now)
	case models.ActionCancel:
		return f.Cancel(user, now)
	case models.ActionRemove:
		return f.Remove(user, now)
	case models.ActionUnblock:
		return f.Unblock(user, now)
	}
	return dErrors.New(dErrors.CodeInvalidArgument, "unknown friendship action: "+string(action))
}

func (s *Service) AcceptFriendRequest(ctx context.Context, id domain.FriendshipID, user domain.PlayerID) (*models.Friendship, error) {
	return s.PatchFriendship(ctx, id, user, models.ActionAccept)
}

func (s *Service) RejectFriendRequest(ctx context.Context, id domain.FriendshipID, user domain.PlayerID) (*models.Friendship, error) {
	return s.PatchFriendship(ctx, id, user, models.ActionReject)
}

// BlockUser blocks target, creating a BLOCKED friendship when the pair has
// none yet.
func (s *Service) BlockUser(ctx context.Context, user, target domain.PlayerID) (*models.Friendship, error) {
	if user == target {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "cannot block yourself")
	}
	var out *models.Friendship
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		f, err := s.friendships.FindByPair(ctx, user, target)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			f, err = models.NewBlock(user, target, s.now())
			if err != nil {
				return err
			}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load friendship")
		default:
			if err := f.Block(user, s.now()); err != nil {
				return err
			}
		}
		if err := s.save(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user blocked", "friendship_id", out.ID, "user_id", user)
	return out, nil
}

// ListByStatus lists the user's friendships in status. Accepted friendships
// match either party; the other statuses list what was addressed to user.
func (s *Service) ListByStatus(ctx context.Context, user domain.PlayerID, status models.Status) ([]*models.Friendship, error) {
	if status != models.StatusAccepted {
		list, err := s.friendships.ListIncomingByStatus(ctx, user, status)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list friendships")
		}
		return list, nil
	}

	var all []*models.Friendship
	page := models.Page{Size: models.MaxPageSize}
	for {
		list, total, err := s.friendships.ListByUserAndStatus(ctx, user, status, page)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list friendships")
		}
		all = append(all, list...)
		if len(list) == 0 || len(all) >= total {
			return all, nil
		}
		page.Number++
	}
}

// FriendsWithPlayerInfo lists the unique counterparts of the user's
// friendships in status, newest first, with their public profiles.
func (s *Service) FriendsWithPlayerInfo(ctx context.Context, user domain.PlayerID, status models.Status, page models.Page) (models.FriendPage, error) {
	page = page.Normalize()
	list, total, err := s.friendships.ListByUserAndStatus(ctx, user, status, page)
	if err != nil {
		return models.FriendPage{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list friendships")
	}

	others := make([]domain.PlayerID, 0, len(list))
	for _, f := range list {
		other, err := f.OtherUser(user)
		if err != nil {
			s.logger.ErrorContext(ctx, "listed friendship does not involve user", "friendship_id", f.ID)
			continue
		}
		if !domain.ContainsPlayer(others, other) {
			others = append(others, other)
		}
	}
	infos, err := s.players.GetPlayerInfos(ctx, others)
	if err != nil {
		return models.FriendPage{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load player infos")
	}
	byID := make(map[domain.PlayerID]aclports.PlayerInfo, len(infos))
	for _, info := range infos {
		byID[info.PlayerID] = info
	}

	seen := make(map[domain.PlayerID]bool, len(list))
	friends := make([]models.Friend, 0, len(list))
	for _, f := range list {
		other, err := f.OtherUser(user)
		if err != nil || seen[other] {
			continue
		}
		seen[other] = true
		info := byID[other]
		friends = append(friends, models.Friend{
			FriendshipID:    f.ID,
			PlayerID:        other,
			Username:        info.Username,
			Bio:             info.Bio,
			GamePreferences: info.GamePreferences,
			Rank:            info.Rank,
			Exp:             info.Exp,
			Status:          f.Status,
			CreatedAt:       f.CreatedAt,
			UpdatedAt:       f.UpdatedAt,
		})
	}
	return models.FriendPage{Friends: friends, Total: total, Page: page}, nil
}

func (s *Service) save(ctx context.Context, f *models.Friendship) error {
	if err := s.friendships.Save(ctx, f); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeInvalidOperation, "friendship already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save friendship")
	}
	return nil
}
