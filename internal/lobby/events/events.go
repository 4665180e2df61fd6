// Package events is the published contract of the lobby module. Other
// modules may import this package and nothing else from internal/lobby.
package events

import (
	"time"

	"arcadia/pkg/domain"
)

const (
	TypeLobbyCreated = "lobby.created"
	TypeLobbyStarted = "lobby.started"
	TypePlayerJoined = "lobby.player_joined"
	TypePlayerLeft   = "lobby.player_left"
	TypeLobbyInvite  = "lobby.invite"
)

// LobbyCreatedEvent carries no game id until the host picks one at start.
type LobbyCreatedEvent struct {
	LobbyID    domain.LobbyID  `json:"lobbyId"`
	GameID     *domain.GameID  `json:"gameId,omitempty"`
	HostID     domain.PlayerID `json:"hostId"`
	MaxPlayers int             `json:"maxPlayers"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (LobbyCreatedEvent) EventType() string     { return TypeLobbyCreated }
func (e LobbyCreatedEvent) AggregateID() string { return e.LobbyID.String() }

// LobbyStartedEvent lists the final roster in join order.
type LobbyStartedEvent struct {
	LobbyID   domain.LobbyID    `json:"lobbyId"`
	GameID    domain.GameID     `json:"gameId"`
	PlayerIDs []domain.PlayerID `json:"playerIds"`
	StartedAt time.Time         `json:"startedAt"`
}

func (LobbyStartedEvent) EventType() string     { return TypeLobbyStarted }
func (e LobbyStartedEvent) AggregateID() string { return e.LobbyID.String() }

type PlayerJoinedLobbyEvent struct {
	LobbyID  domain.LobbyID  `json:"lobbyId"`
	PlayerID domain.PlayerID `json:"playerId"`
}

func (PlayerJoinedLobbyEvent) EventType() string     { return TypePlayerJoined }
func (e PlayerJoinedLobbyEvent) AggregateID() string { return e.LobbyID.String() }

type PlayerLeftLobbyEvent struct {
	LobbyID  domain.LobbyID  `json:"lobbyId"`
	PlayerID domain.PlayerID `json:"playerId"`
}

func (PlayerLeftLobbyEvent) EventType() string     { return TypePlayerLeft }
func (e PlayerLeftLobbyEvent) AggregateID() string { return e.LobbyID.String() }

// LobbyInviteEvent is delivered to the invited player by the notification
// module.
type LobbyInviteEvent struct {
	LobbyID         domain.LobbyID  `json:"lobbyId"`
	GameID          *domain.GameID  `json:"gameId,omitempty"`
	HostID          domain.PlayerID `json:"hostId"`
	InvitedPlayerID domain.PlayerID `json:"invitedPlayerId"`
}

func (LobbyInviteEvent) EventType() string     { return TypeLobbyInvite }
func (e LobbyInviteEvent) AggregateID() string { return e.LobbyID.String() }

// OptionalGameID returns nil for the zero id.
func OptionalGameID(id domain.GameID) *domain.GameID {
	if id.IsNil() {
		return nil
	}
	return &id
}
