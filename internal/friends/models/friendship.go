package models

import (
	"time"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusBlocked  Status = "BLOCKED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusAccepted, StatusRejected, StatusBlocked:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidArgument, "unknown friendship status: "+s)
}

// Action is a caller-requested transition.
type Action string

const (
	ActionAccept  Action = "ACCEPT"
	ActionReject  Action = "REJECT"
	ActionBlock   Action = "BLOCK"
	ActionCancel  Action = "CANCEL"
	ActionRemove  Action = "REMOVE"
	ActionUnblock Action = "UNBLOCK"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAccept, ActionReject, ActionBlock, ActionCancel, ActionRemove, ActionUnblock:
		return a, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidArgument, "unknown friendship action: "+s)
}

// Friendship is the relationship between two players.
//
// Invariants:
//   - RequesterID != AddresseeID
//   - REJECTED and BLOCKED never return to PENDING
//   - the addressee of a BLOCKED friendship is the player who blocked
type Friendship struct {
	ID          domain.FriendshipID
	RequesterID domain.PlayerID
	AddresseeID domain.PlayerID
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewFriendRequest builds a PENDING friendship.
func NewFriendRequest(requester, addressee domain.PlayerID, now time.Time) (*Friendship, error) {
	return newFriendship(requester, addressee, StatusPending, now)
}

// NewBlock builds a BLOCKED friendship between players with no prior
// relationship. The blocker is recorded as addressee so that they are the
// one allowed to unblock.
func NewBlock(blocker, blocked domain.PlayerID, now time.Time) (*Friendship, error) {
	return newFriendship(blocked, blocker, StatusBlocked, now)
}

func newFriendship(requester, addressee domain.PlayerID, status Status, now time.Time) (*Friendship, error) {
	if requester.IsNil() || addressee.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "both players are required")
	}
	if requester == addressee {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "cannot befriend yourself")
	}
	return &Friendship{
		ID:          domain.NewFriendshipID(),
		RequesterID: requester,
		AddresseeID: addressee,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (f *Friendship) Accept(now time.Time) error {
	if f.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidOperation, "only pending friend requests can be accepted")
	}
	f.transition(StatusAccepted, now)
	return nil
}

func (f *Friendship) Reject(now time.Time) error {
	if f.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidOperation, "only pending friend requests can be rejected")
	}
	f.transition(StatusRejected, now)
	return nil
}

// Block moves the friendship to BLOCKED from any status and records by as
// the addressee. An existing block keeps its original blocker.
func (f *Friendship) Block(by domain.PlayerID, now time.Time) error {
	if !f.InvolvesUser(by) {
		return dErrors.New(dErrors.CodeInvalidOperation, "user is not part of this friendship")
	}
	if f.Status == StatusBlocked {
		return nil
	}
	if f.IsRequester(by) {
		f.RequesterID, f.AddresseeID = f.AddresseeID, f.RequesterID
	}
	f.transition(StatusBlocked, now)
	return nil
}

// Cancel withdraws a pending request. Requester only.
func (f *Friendship) Cancel(user domain.PlayerID, now time.Time) error {
	if f.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidOperation, "only pending friend requests can be cancelled")
	}
	if !f.IsRequester(user) {
		return dErrors.New(dErrors.CodeInvalidOperation, "only the requester can cancel a friend request")
	}
	f.transition(StatusRejected, now)
	return nil
}

// Remove ends an accepted friendship. Either party may remove it.
func (f *Friendship) Remove(user domain.PlayerID, now time.Time) error {
	if f.Status != StatusAccepted {
		return dErrors.New(dErrors.CodeInvalidOperation, "only accepted friendships can be removed")
	}
	if !f.InvolvesUser(user) {
		return dErrors.New(dErrors.CodeInvalidOperation, "user is not part of this friendship")
	}
	f.transition(StatusRejected, now)
	return nil
}

// Unblock lifts a block. Only the addressee, who blocked, may unblock.
func (f *Friendship) Unblock(user domain.PlayerID, now time.Time) error {
	if f.Status != StatusBlocked {
		return dErrors.New(dErrors.CodeInvalidOperation, "only blocked friendships can be unblocked")
	}
	if !f.IsAddressee(user) {
		return dErrors.New(dErrors.CodeInvalidOperation, "only the user who blocked can unblock")
	}
	f.transition(StatusRejected, now)
	return nil
}

func (f *Friendship) transition(to Status, now time.Time) {
	f.Status = to
	f.UpdatedAt = now
}

// IsActive is true only for accepted friendships.
func (f *Friendship) IsActive() bool {
	return f.Status == StatusAccepted
}

func (f *Friendship) IsRequester(user domain.PlayerID) bool {
	return f.RequesterID == user
}

func (f *Friendship) IsAddressee(user domain.PlayerID) bool {
	return f.AddresseeID == user
}

func (f *Friendship) InvolvesUser(user domain.PlayerID) bool {
	return f.IsRequester(user) || f.IsAddressee(user)
}

// OtherUser returns the counterpart of user.
func (f *Friendship) OtherUser(user domain.PlayerID) (domain.PlayerID, error) {
	switch user {
	case f.RequesterID:
		return f.AddresseeID, nil
	case f.AddresseeID:
		return f.RequesterID, nil
	}
	return domain.PlayerID{}, dErrors.New(dErrors.CodeInvalidArgument, "user is not part of this friendship")
}
