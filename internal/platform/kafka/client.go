// Package kafka wraps franz-go for the broker-facing edges of the process:
// inbound consumers for the external game service topics, the outbox relay
// producer and topic provisioning.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"arcadia/internal/platform/config"
)

// NewClient connects to the configured seed brokers.
func NewClient(cfg config.KafkaConfig, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	all := append([]kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID("arcadia"),
	}, opts...)
	client, err := kgo.NewClient(all...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return client, nil
}

// HealthCheck adapts a client to a readiness check.
func HealthCheck(client *kgo.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx)
	}
}
