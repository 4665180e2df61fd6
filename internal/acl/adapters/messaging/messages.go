// Package messaging translates the external game service's broker messages
// into GameContextPort calls. Nothing outside this package sees the
// external field names.
package messaging

import (
	"encoding/json"
	"strings"
	"time"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

const (
	MessageTypeAchievementAcquired = "ACHIEVEMENT_ACQUIRED"
	MessageTypeGameEnded           = "GAME_ENDED"
)

// AchievementAcquiredMessage is published by the external game when a
// player unlocks one of its own achievements. AchievementType doubles as
// the achievement code.
type AchievementAcquiredMessage struct {
	GameID                 string    `json:"gameId"`
	PlayerID               string    `json:"playerId"`
	PlayerName             string    `json:"playerName"`
	AchievementType        string    `json:"achievementType"`
	AchievementDescription string    `json:"achievementDescription"`
	MessageType            string    `json:"messageType"`
	Timestamp              time.Time `json:"timestamp"`
}

// ThirdPartyUnlock is an AchievementAcquiredMessage in platform terms.
type ThirdPartyUnlock struct {
	GameID      domain.GameID
	PlayerID    domain.PlayerID
	Code        string
	Name        string
	Description string
}

func (m AchievementAcquiredMessage) Translate() (ThirdPartyUnlock, error) {
	if err := checkType(m.MessageType, MessageTypeAchievementAcquired); err != nil {
		return ThirdPartyUnlock{}, err
	}
	game, err := domain.ParseGameID(m.GameID)
	if err != nil {
		return ThirdPartyUnlock{}, err
	}
	player, err := domain.ParsePlayerID(m.PlayerID)
	if err != nil {
		return ThirdPartyUnlock{}, err
	}
	code := strings.TrimSpace(m.AchievementType)
	if code == "" {
		return ThirdPartyUnlock{}, dErrors.New(dErrors.CodeInvalidArgument, "achievement type is required")
	}
	return ThirdPartyUnlock{
		GameID:      game,
		PlayerID:    player,
		Code:        code,
		Name:        code,
		Description: strings.TrimSpace(m.AchievementDescription),
	}, nil
}

// GameEndedMessage reports a finished external match. PlayerIDs may be
// missing, in which case the players are known only by their usernames.
type GameEndedMessage struct {
	LobbyID     string    `json:"lobbyId"`
	WinnerID    *string   `json:"winnerId,omitempty"`
	WhitePlayer string    `json:"whitePlayer"`
	BlackPlayer string    `json:"blackPlayer"`
	PlayerIDs   []string  `json:"playerIds"`
	EndReason   string    `json:"endReason"`
	MessageType string    `json:"messageType,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// GameEnded is a GameEndedMessage in platform terms.
type GameEnded struct {
	LobbyID   domain.LobbyID
	WinnerID  *domain.PlayerID
	PlayerIDs []domain.PlayerID
	Usernames []string
	EndReason string
}

func (m GameEndedMessage) Translate() (GameEnded, error) {
	if err := checkType(m.MessageType, MessageTypeGameEnded); err != nil {
		return GameEnded{}, err
	}
	lobby, err := domain.ParseLobbyID(m.LobbyID)
	if err != nil {
		return GameEnded{}, err
	}
	out := GameEnded{LobbyID: lobby, EndReason: strings.ToUpper(strings.TrimSpace(m.EndReason))}

	if m.WinnerID != nil && strings.TrimSpace(*m.WinnerID) != "" {
		winner, err := domain.ParsePlayerID(*m.WinnerID)
		if err != nil {
			return GameEnded{}, err
		}
		out.WinnerID = &winner
	}
	for _, raw := range m.PlayerIDs {
		id, err := domain.ParsePlayerID(raw)
		if err != nil {
			return GameEnded{}, err
		}
		out.PlayerIDs = append(out.PlayerIDs, id)
	}
	for _, name := range []string{m.WhitePlayer, m.BlackPlayer} {
		if name = strings.TrimSpace(name); name != "" {
			out.Usernames = append(out.Usernames, name)
		}
	}
	if len(out.PlayerIDs) == 0 && len(out.Usernames) == 0 {
		return GameEnded{}, dErrors.New(dErrors.CodeInvalidArgument, "game ended without participants")
	}
	return out, nil
}

// IsDraw reports whether the external service declared a draw.
func (g GameEnded) IsDraw() bool {
	return g.EndReason == "DRAW" || g.EndReason == "STALEMATE"
}

// checkType accepts an absent message type.
func checkType(got, want string) error {
	if got != "" && !strings.EqualFold(got, want) {
		return dErrors.New(dErrors.CodeInvalidArgument, "unexpected message type "+got)
	}
	return nil
}

func decode(value []byte, into any) error {
	if err := json.Unmarshal(value, into); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidArgument, "malformed message")
	}
	return nil
}
