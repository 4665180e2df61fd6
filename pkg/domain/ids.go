package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "arcadia/pkg/domain-errors"
)

// Typed identifiers shared by every module. Each one wraps a UUID so that a
// LobbyID can never be passed where a PlayerID is expected.
//
// Usage: construct via the Parse* functions at trust boundaries (inbound
// messages, configuration); New* functions mint fresh identifiers.
type (
	PlayerID           uuid.UUID
	LobbyID            uuid.UUID
	GameID             uuid.UUID
	SessionID          uuid.UUID
	FriendshipID       uuid.UUID
	AchievementID      uuid.UUID
	UserAchievementID  uuid.UUID
	MessageID          uuid.UUID
	ExternalInstanceID uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidArgument, kind+" cannot be empty")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidArgument, "invalid "+kind)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidArgument, "invalid "+kind)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidArgument, kind+" cannot be nil")
	}
	return id, nil
}

func ParsePlayerID(s string) (PlayerID, error) {
	id, err := parseUUID("player id", s)
	return PlayerID(id), err
}

func ParseLobbyID(s string) (LobbyID, error) {
	id, err := parseUUID("lobby id", s)
	return LobbyID(id), err
}

func ParseGameID(s string) (GameID, error) {
	id, err := parseUUID("game id", s)
	return GameID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID("session id", s)
	return SessionID(id), err
}

func ParseFriendshipID(s string) (FriendshipID, error) {
	id, err := parseUUID("friendship id", s)
	return FriendshipID(id), err
}

func ParseAchievementID(s string) (AchievementID, error) {
	id, err := parseUUID("achievement id", s)
	return AchievementID(id), err
}

func ParseMessageID(s string) (MessageID, error) {
	id, err := parseUUID("message id", s)
	return MessageID(id), err
}

func NewPlayerID() PlayerID                     { return PlayerID(uuid.New()) }
func NewLobbyID() LobbyID                       { return LobbyID(uuid.New()) }
func NewGameID() GameID                         { return GameID(uuid.New()) }
func NewSessionID() SessionID                   { return SessionID(uuid.New()) }
func NewFriendshipID() FriendshipID             { return FriendshipID(uuid.New()) }
func NewAchievementID() AchievementID           { return AchievementID(uuid.New()) }
func NewUserAchievementID() UserAchievementID   { return UserAchievementID(uuid.New()) }
func NewMessageID() MessageID                   { return MessageID(uuid.New()) }
func NewExternalInstanceID() ExternalInstanceID { return ExternalInstanceID(uuid.New()) }

func (id PlayerID) String() string           { return uuid.UUID(id).String() }
func (id LobbyID) String() string            { return uuid.UUID(id).String() }
func (id GameID) String() string             { return uuid.UUID(id).String() }
func (id SessionID) String() string          { return uuid.UUID(id).String() }
func (id FriendshipID) String() string       { return uuid.UUID(id).String() }
func (id AchievementID) String() string      { return uuid.UUID(id).String() }
func (id UserAchievementID) String() string  { return uuid.UUID(id).String() }
func (id MessageID) String() string          { return uuid.UUID(id).String() }
func (id ExternalInstanceID) String() string { return uuid.UUID(id).String() }

func (id PlayerID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id LobbyID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id GameID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id FriendshipID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AchievementID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserAchievementID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ExternalInstanceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText and UnmarshalText let identifiers travel in JSON payloads as
// canonical UUID strings.
func (id PlayerID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PlayerID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id LobbyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *LobbyID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id GameID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *GameID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id AchievementID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *AchievementID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id MessageID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *MessageID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// PlayerIDStrings renders a roster for logs and wire payloads.
func PlayerIDStrings(ids []PlayerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// ContainsPlayer reports whether id is present in ids.
func ContainsPlayer(ids []PlayerID, id PlayerID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// RemovePlayer returns ids without any occurrence of id, preserving order.
func RemovePlayer(ids []PlayerID, id PlayerID) []PlayerID {
	out := ids[:0:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
