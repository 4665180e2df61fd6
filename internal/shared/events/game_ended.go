// Package events holds the domain events that no single module owns.
//
// GameEndedDomainEvent is raised by the ACL when the external game service
// reports a finished game; Lobby and Achievements both consume it.
package events

import "arcadia/pkg/domain"

const TypeGameEnded = "game.ended"

// GameEndedDomainEvent announces that the game played in a lobby finished.
// WinnerID is absent for draws and abandoned games.
type GameEndedDomainEvent struct {
	LobbyID   domain.LobbyID    `json:"lobbyId"`
	WinnerID  *domain.PlayerID  `json:"winnerId,omitempty"`
	PlayerIDs []domain.PlayerID `json:"playerIds"`
}

func (GameEndedDomainEvent) EventType() string     { return TypeGameEnded }
func (e GameEndedDomainEvent) AggregateID() string { return e.LobbyID.String() }

// HasWinner reports whether the game ended with a winner.
func (e GameEndedDomainEvent) HasWinner() bool {
	return e.WinnerID != nil && !e.WinnerID.IsNil()
}
