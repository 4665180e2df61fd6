package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestRouter(t *testing.T) {
	router := NewRouter(nil)
	var got []string
	router.Route("game.ended", HandlerFunc(func(_ context.Context, msg *Message) error {
		got = append(got, string(msg.Value))
		return nil
	}))

	require.NoError(t, router.Handle(context.Background(), &Message{Topic: "game.ended", Value: []byte("a")}))
	require.NoError(t, router.Handle(context.Background(), &Message{Topic: "unrouted", Value: []byte("b")}))

	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, []string{"game.ended"}, router.Topics())
}

func TestToMessage(t *testing.T) {
	rec := &kgo.Record{
		Topic:     "game.achievements",
		Key:       []byte("k"),
		Value:     []byte("v"),
		Partition: 2,
		Offset:    41,
		Headers:   []kgo.RecordHeader{{Key: "event-type", Value: []byte("lobby.started")}},
	}

	msg := toMessage(rec)
	assert.Equal(t, "game.achievements", msg.Topic)
	assert.Equal(t, int32(2), msg.Partition)
	assert.Equal(t, int64(41), msg.Offset)
	assert.Equal(t, "lobby.started", msg.Headers["event-type"])
}
