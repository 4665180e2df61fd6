package models

import (
	"strings"
	"time"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

// Status is the lobby lifecycle state.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	// StatusCancelled is terminal: the host left before the game started.
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCancelled:
		return true
	}
	return false
}

// Lobby is the aggregate root for a group of players gathering for a game.
//
// Invariants:
//   - SessionID is set iff Status is IN_PROGRESS
//   - len(PlayerIDs) <= MaxPlayers and MaxPlayers >= 1
//   - PlayerIDs holds no duplicates and keeps join order
//   - the host is the first joined player at creation
type Lobby struct {
	ID               domain.LobbyID
	GameID           domain.GameID
	HostID           domain.PlayerID
	Name             string
	Description      string
	MaxPlayers       int
	IsPrivate        bool
	Status           Status
	SessionID        domain.SessionID
	PlayerIDs        []domain.PlayerID
	InvitedPlayerIDs []domain.PlayerID
	CreatedAt        time.Time
	StartedAt        *time.Time
}

const maxNameLength = 100

// NewLobby builds a WAITING lobby with the host already joined. The host is
// seated directly so that private lobbies need no self-invitation.
func NewLobby(id domain.LobbyID, host domain.PlayerID, name, description string, maxPlayers int, isPrivate bool, now time.Time) (*Lobby, error) {
	name = strings.TrimSpace(name)
	if host.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "host id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "lobby name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "lobby name must be 100 characters or less")
	}
	if maxPlayers < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "max players must be at least 1")
	}
	return &Lobby{
		ID:          id,
		HostID:      host,
		Name:        name,
		Description: strings.TrimSpace(description),
		MaxPlayers:  maxPlayers,
		IsPrivate:   isPrivate,
		Status:      StatusWaiting,
		PlayerIDs:   []domain.PlayerID{host},
		CreatedAt:   now,
	}, nil
}

// IsActive reports whether the lobby is in a non-terminal state.
func (l *Lobby) IsActive() bool {
	return l.Status == StatusWaiting || l.Status == StatusInProgress
}

func (l *Lobby) IsHost(player domain.PlayerID) bool {
	return l.HostID == player
}

func (l *Lobby) HasPlayer(player domain.PlayerID) bool {
	return domain.ContainsPlayer(l.PlayerIDs, player)
}

func (l *Lobby) IsInvited(player domain.PlayerID) bool {
	return domain.ContainsPlayer(l.InvitedPlayerIDs, player)
}

func (l *Lobby) IsFull() bool {
	return len(l.PlayerIDs) >= l.MaxPlayers
}

func (l *Lobby) HasSession() bool {
	return !l.SessionID.IsNil()
}

// Join seats a player.
func (l *Lobby) Join(player domain.PlayerID) error {
	if l.Status != StatusWaiting {
		return dErrors.New(dErrors.CodeInvalidOperation, "cannot join lobby that is not waiting for players")
	}
	if l.HasPlayer(player) {
		return dErrors.New(dErrors.CodeInvalidOperation, "player already in lobby")
	}
	if l.IsFull() {
		return dErrors.New(dErrors.CodeInvalidOperation, "lobby is full")
	}
	if l.IsPrivate && !l.IsInvited(player) {
		return dErrors.New(dErrors.CodeInvalidOperation, "player not invited to private lobby")
	}
	l.PlayerIDs = append(l.PlayerIDs, player)
	l.InvitedPlayerIDs = domain.RemovePlayer(l.InvitedPlayerIDs, player)
	return nil
}

// Leave removes a player and any pending invitation. Leaving a lobby the
// player is not part of is a no-op. A host leaving a WAITING lobby cancels it.
func (l *Lobby) Leave(player domain.PlayerID) {
	l.PlayerIDs = domain.RemovePlayer(l.PlayerIDs, player)
	l.InvitedPlayerIDs = domain.RemovePlayer(l.InvitedPlayerIDs, player)
	if l.IsHost(player) && l.Status == StatusWaiting {
		l.Status = StatusCancelled
	}
}

// Invite records an invitation to a private lobby.
func (l *Lobby) Invite(player domain.PlayerID) error {
	if !l.IsPrivate {
		return dErrors.New(dErrors.CodeInvalidOperation, "invitations are only needed for private lobbies")
	}
	if l.Status != StatusWaiting {
		return dErrors.New(dErrors.CodeInvalidOperation, "cannot invite to lobby that is not waiting for players")
	}
	if l.HasPlayer(player) {
		return dErrors.New(dErrors.CodeInvalidOperation, "player already in lobby")
	}
	if l.IsInvited(player) {
		return dErrors.New(dErrors.CodeInvalidOperation, "player already invited")
	}
	l.InvitedPlayerIDs = append(l.InvitedPlayerIDs, player)
	return nil
}

// Start moves a WAITING lobby into a game session.
func (l *Lobby) Start(game domain.GameID, session domain.SessionID, minPlayers int, now time.Time) error {
	if l.Status != StatusWaiting {
		return dErrors.New(dErrors.CodeInvalidOperation, "lobby can only be started from waiting status")
	}
	if game.IsNil() {
		return dErrors.New(dErrors.CodeInvalidArgument, "game id is required to start lobby")
	}
	if session.IsNil() {
		return dErrors.New(dErrors.CodeInvalidArgument, "session id is required to start lobby")
	}
	if minPlayers < 1 {
		minPlayers = 1
	}
	if len(l.PlayerIDs) < minPlayers {
		return dErrors.New(dErrors.CodeInvalidOperation, "not enough players to start lobby")
	}
	started := now
	l.GameID = game
	l.SessionID = session
	l.Status = StatusInProgress
	l.StartedAt = &started
	return nil
}

// ResetAfterGameEnd clears the session and returns the lobby to WAITING from
// any status. Repeated calls leave the lobby unchanged.
func (l *Lobby) ResetAfterGameEnd() {
	l.SessionID = domain.SessionID{}
	l.Status = StatusWaiting
}

// Rename updates the display fields of a WAITING lobby.
func (l *Lobby) Rename(name, description string) error {
	if l.Status != StatusWaiting {
		return dErrors.New(dErrors.CodeInvalidOperation, "can only update lobby when it is in waiting status")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "lobby name cannot be empty")
	}
	if len(name) > maxNameLength {
		return dErrors.New(dErrors.CodeInvalidArgument, "lobby name must be 100 characters or less")
	}
	l.Name = name
	l.Description = strings.TrimSpace(description)
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (l *Lobby) Clone() *Lobby {
	if l == nil {
		return nil
	}
	c := *l
	c.PlayerIDs = append([]domain.PlayerID(nil), l.PlayerIDs...)
	c.InvitedPlayerIDs = append([]domain.PlayerID(nil), l.InvitedPlayerIDs...)
	if l.StartedAt != nil {
		started := *l.StartedAt
		c.StartedAt = &started
	}
	return &c
}
