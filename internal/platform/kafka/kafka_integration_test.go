//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arcadia/internal/platform/config"
	"arcadia/pkg/platform/outbox"
	"arcadia/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
}

func TestKafkaSuite(t *testing.T) {
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	s.broker = containers.NewRedpandaContainer(s.T())
}

func (s *KafkaSuite) TestProduceAndConsume() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cfg := config.KafkaConfig{Brokers: []string{s.broker.SeedBroker}}

	admin, err := NewClient(cfg)
	s.Require().NoError(err)
	defer admin.Close()
	s.Require().NoError(EnsureTopics(ctx, admin, "test.topic"))
	s.Require().NoError(EnsureTopics(ctx, admin, "test.topic"), "ensure is idempotent")

	producer := NewProducer(admin)
	s.Require().NoError(producer.Produce(ctx, "test.topic", outbox.Message{
		Key:     []byte("lobby-1"),
		Value:   []byte(`{"ok":true}`),
		Headers: map[string]string{"event-type": "lobby.started"},
	}))

	client, err := NewClient(cfg, GroupOpts("test-group", "test.topic")...)
	s.Require().NoError(err)
	defer client.Close()

	received := make(chan *Message, 1)
	consumer := NewConsumer(client, nil)
	go func() {
		_ = consumer.Run(ctx, HandlerFunc(func(_ context.Context, msg *Message) error {
			received <- msg
			cancel()
			return nil
		}))
	}()

	select {
	case msg := <-received:
		s.Equal("lobby-1", string(msg.Key))
		s.Equal("lobby.started", msg.Headers["event-type"])
	case <-time.After(25 * time.Second):
		s.FailNow("message not consumed")
	}
}
