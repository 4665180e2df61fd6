package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"arcadia/internal/acl/adapters"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/outbox"
)

const MessageTypeSessionStartRequested = "GAME_SESSION_START_REQUESTED"

// SessionStartRequestedMessage asks the external game service to open a
// session. The first player starts.
type SessionStartRequestedMessage struct {
	EventID          string          `json:"eventId"`
	Timestamp        time.Time       `json:"timestamp"`
	SessionID        string          `json:"session_id"`
	GameID           string          `json:"game_id"`
	GameType         string          `json:"game_type"`
	LobbyID          string          `json:"lobby_id"`
	PlayerIDs        []string        `json:"player_ids"`
	StartingPlayerID string          `json:"starting_player_id"`
	Players          []SessionPlayer `json:"players"`
	Type             string          `json:"type"`
}

type SessionPlayer struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// SessionRequester implements the external game service port by producing
// start requests to a broker topic.
type SessionRequester struct {
	sink  outbox.Sink
	topic string
	now   func() time.Time
}

var _ adapters.ExternalGameService = (*SessionRequester)(nil)

func NewSessionRequester(sink outbox.Sink, topic string) *SessionRequester {
	return &SessionRequester{sink: sink, topic: topic, now: time.Now}
}

func (r *SessionRequester) RequestSession(ctx context.Context, s adapters.ExternalSession) error {
	if len(s.Players) == 0 {
		return fmt.Errorf("session %s has no players", s.InstanceID)
	}
	msg := SessionStartRequestedMessage{
		EventID:          uuid.NewString(),
		Timestamp:        r.now().UTC(),
		SessionID:        s.InstanceID,
		GameID:           s.GameID.String(),
		GameType:         s.GameType,
		LobbyID:          s.LobbyID.String(),
		StartingPlayerID: s.Players[0].PlayerID.String(),
		Type:             MessageTypeSessionStartRequested,
	}
	ids := make([]domain.PlayerID, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.PlayerID
		msg.Players = append(msg.Players, SessionPlayer{PlayerID: p.PlayerID.String(), Username: p.Username})
	}
	msg.PlayerIDs = domain.PlayerIDStrings(ids)

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode session request: %w", err)
	}
	return r.sink.Produce(ctx, r.topic, outbox.Message{
		Key:     []byte(s.LobbyID.String()),
		Value:   value,
		Headers: map[string]string{"message-id": msg.EventID, "message-type": msg.Type},
	})
}
