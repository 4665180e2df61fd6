package models

import "arcadia/pkg/domain"

// SearchFilter narrows a lobby search. Zero values match everything; the
// search only ever returns WAITING lobbies nobody has filled yet.
type SearchFilter struct {
	GameID  domain.GameID
	HostIDs []domain.PlayerID
	// IncludePrivate also returns private lobbies.
	IncludePrivate bool
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a window of results. Number is zero-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into the supported range.
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

// Result is one page of lobbies plus the total match count.
type Result struct {
	Lobbies []*Lobby
	Total   int
	Page    Page
}

// Matches reports whether l satisfies f. Used by the in-memory store; the
// postgres store expresses the same predicate in SQL.
func (f SearchFilter) Matches(l *Lobby) bool {
	if l.Status != StatusWaiting || l.IsFull() {
		return false
	}
	if l.IsPrivate && !f.IncludePrivate {
		return false
	}
	if !f.GameID.IsNil() && l.GameID != f.GameID {
		return false
	}
	if len(f.HostIDs) > 0 && !domain.ContainsPlayer(f.HostIDs, l.HostID) {
		return false
	}
	return true
}
