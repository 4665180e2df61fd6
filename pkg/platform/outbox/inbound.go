package outbox

import (
	"context"
	"errors"
	"log/slog"

	"arcadia/pkg/platform/events"
)

// Inbound republishes relayed envelopes from other processes on the local
// bus, marked with events.WithReplayed. Envelopes stamped with this
// process's origin were already delivered locally after commit and are
// skipped.
type Inbound struct {
	codec     *events.Codec
	publisher events.Publisher
	origin    string
	logger    *slog.Logger
}

func NewInbound(codec *events.Codec, publisher events.Publisher, origin string, logger *slog.Logger) *Inbound {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbound{codec: codec, publisher: publisher, origin: origin, logger: logger}
}

// Handle decodes one envelope. Unknown or malformed envelopes are logged and
// dropped; they can never succeed on redelivery.
func (i *Inbound) Handle(ctx context.Context, value []byte) error {
	env, evt, err := i.codec.Decode(value)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, events.ErrUnknownEventType) {
			level = slog.LevelDebug
		}
		i.logger.Log(ctx, level, "inbound envelope dropped", "type", env.Type, "error", err)
		return nil
	}
	if env.Origin != "" && env.Origin == i.origin {
		return nil
	}
	i.publisher.Publish(events.WithReplayed(ctx), evt)
	return nil
}
