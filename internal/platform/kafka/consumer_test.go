package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcadia/pkg/testutil"
)

func fastConsumer() (*Consumer, *testutil.LogBuffer) {
	logs := &testutil.LogBuffer{}
	return NewConsumer(nil, logs.Logger(), WithRetryIntervals(time.Millisecond, 5*time.Millisecond)), logs
}

func TestProcessRetriesUntilTheHandlerSucceeds(t *testing.T) {
	consumer, logs := fastConsumer()
	calls := 0
	handler := HandlerFunc(func(context.Context, *Message) error {
		calls++
		if calls < 3 {
			return errors.New("store unavailable")
		}
		return nil
	})

	require.NoError(t, consumer.Process(context.Background(), handler, &Message{Topic: "game.achievements", Offset: 7}))
	assert.Equal(t, 3, calls)
	assert.Contains(t, logs.String(), "retrying")
}

func TestProcessSkipsPermanentFailures(t *testing.T) {
	consumer, logs := fastConsumer()
	calls := 0
	handler := HandlerFunc(func(context.Context, *Message) error {
		calls++
		return Permanent(errors.New("unauthenticated"))
	})

	require.NoError(t, consumer.Process(context.Background(), handler, &Message{Topic: "game.ended"}))
	assert.Equal(t, 1, calls)
	assert.Contains(t, logs.String(), "skipping record")
}

func TestProcessGivesUpOnlyWhenCancelled(t *testing.T) {
	consumer, _ := fastConsumer()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	handler := HandlerFunc(func(context.Context, *Message) error {
		calls++
		if calls == 4 {
			cancel()
		}
		return errors.New("still failing")
	})

	err := consumer.Process(ctx, handler, &Message{Topic: "game.ended"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, calls)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.False(t, IsPermanent(nil))
}
