package messaging

import (
	"context"
	"fmt"

	"arcadia/internal/platform/kafka"
)

// Deduplicator claims message keys. The Redis deduplicator implements it.
type Deduplicator interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// MessageKey identifies a record for redelivery detection. A message-id
// header wins over the record position.
func MessageKey(msg *kafka.Message) string {
	if id := msg.Headers["message-id"]; id != "" {
		return msg.Topic + ":" + id
	}
	return fmt.Sprintf("%s:%d:%d", msg.Topic, msg.Partition, msg.Offset)
}
