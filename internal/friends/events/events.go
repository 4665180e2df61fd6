// Package events is the published contract of the friends module.
package events

import "arcadia/pkg/domain"

const TypeFriendRequestSent = "friends.request_sent"

type FriendRequestEvent struct {
	RequesterID domain.PlayerID `json:"requesterId"`
	AddresseeID domain.PlayerID `json:"addresseeId"`
}

func (FriendRequestEvent) EventType() string { return TypeFriendRequestSent }

// AggregateID is the addressee: requests to one player stay ordered.
func (e FriendRequestEvent) AggregateID() string { return e.AddresseeID.String() }
