package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arcadia/pkg/domain-errors"
)

func TestParsePlayerID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePlayerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePlayerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePlayerID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParsePlayerID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, PlayerID(raw), id)
	})
}

func TestParseID_MalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE lobbies;--", true},
		{"Null byte", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Padded valid UUID", "  550e8400-e29b-41d4-a716-446655440000 ", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLobbyID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()
	parsers := map[string]func(string) error{
		"player":      func(s string) error { _, err := ParsePlayerID(s); return err },
		"lobby":       func(s string) error { _, err := ParseLobbyID(s); return err },
		"game":        func(s string) error { _, err := ParseGameID(s); return err },
		"session":     func(s string) error { _, err := ParseSessionID(s); return err },
		"friendship":  func(s string) error { _, err := ParseFriendshipID(s); return err },
		"achievement": func(s string) error { _, err := ParseAchievementID(s); return err },
		"message":     func(s string) error { _, err := ParseMessageID(s); return err },
	}

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, parse(valid))
			for _, input := range []string{"", "invalid", uuid.Nil.String()} {
				assert.Error(t, parse(input), "input %q", input)
			}
		})
	}
}

func TestIDsEncodeAsCanonicalStrings(t *testing.T) {
	payload := struct {
		LobbyID  LobbyID  `json:"lobbyId"`
		PlayerID PlayerID `json:"playerId"`
	}{LobbyID: NewLobbyID(), PlayerID: NewPlayerID()}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), payload.LobbyID.String())

	var decoded struct {
		LobbyID  LobbyID  `json:"lobbyId"`
		PlayerID PlayerID `json:"playerId"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload.LobbyID, decoded.LobbyID)
	assert.Equal(t, payload.PlayerID, decoded.PlayerID)
}

func TestRosterHelpers(t *testing.T) {
	a, b, c := NewPlayerID(), NewPlayerID(), NewPlayerID()
	roster := []PlayerID{a, b, c}

	assert.True(t, ContainsPlayer(roster, b))
	assert.False(t, ContainsPlayer(roster, NewPlayerID()))

	trimmed := RemovePlayer(roster, b)
	assert.Equal(t, []PlayerID{a, c}, trimmed)
	assert.Equal(t, []PlayerID{a, b, c}, roster, "input roster must not be mutated")
	assert.Equal(t, []string{a.String(), c.String()}, PlayerIDStrings(trimmed))
}
