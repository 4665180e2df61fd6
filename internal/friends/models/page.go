package models

import (
	"time"

	"arcadia/pkg/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a zero-based window of results.
type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

// Friend is one counterpart of a user's friendships with its public
// profile. Username and the other profile fields are empty when the player
// no longer exists.
type Friend struct {
	FriendshipID    domain.FriendshipID
	PlayerID        domain.PlayerID
	Username        string
	Bio             string
	GamePreferences []string
	Rank            int
	Exp             int64
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FriendPage is one page of friends plus the total friendship count.
type FriendPage struct {
	Friends []Friend
	Total   int
	Page    Page
}
