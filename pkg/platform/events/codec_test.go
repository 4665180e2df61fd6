package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	codec := NewCodec()
	Register[pinged](codec)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("decodes a registered event", func(t *testing.T) {
		raw, err := codec.Encode(pinged{ID: "lobby-1", Seq: 7}, "node-a", now)
		require.NoError(t, err)

		env, evt, err := codec.Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, "test.pinged", env.Type)
		assert.Equal(t, "lobby-1", env.AggregateID)
		assert.Equal(t, "node-a", env.Origin)
		assert.True(t, now.Equal(env.OccurredAt))
		assert.NotEmpty(t, env.ID)
		assert.Equal(t, pinged{ID: "lobby-1", Seq: 7}, evt)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		raw, err := codec.Encode(ponged{ID: "x"}, "", now)
		require.NoError(t, err)

		_, _, err = codec.Decode(raw)
		require.ErrorIs(t, err, ErrUnknownEventType)
	})

	t.Run("rejects malformed envelopes", func(t *testing.T) {
		_, _, err := codec.Decode([]byte("{not json"))
		require.Error(t, err)
	})
}
