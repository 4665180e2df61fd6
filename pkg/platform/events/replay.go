package events

import "context"

type replayedKey struct{}

// WithReplayed marks ctx as carrying events that another process already
// handled and committed.
func WithReplayed(ctx context.Context) context.Context {
	return context.WithValue(ctx, replayedKey{}, true)
}

// Replayed reports whether ctx was marked with WithReplayed.
func Replayed(ctx context.Context) bool {
	v, _ := ctx.Value(replayedKey{}).(bool)
	return v
}

// LocalOnly keeps replayed events away from a subscription. Listeners that
// issue commands to the outside world use it so that every peer does not
// repeat the command.
func LocalOnly() SubscribeOption {
	return func(s *subscription) {
		s.localOnly = true
	}
}
