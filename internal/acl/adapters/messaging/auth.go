package messaging

import (
	"context"

	"arcadia/internal/platform/kafka"
)

// Authenticator decides whether an inbound message comes from a trusted
// service.
type Authenticator interface {
	Authenticate(ctx context.Context, msg *kafka.Message) error
}

type AuthenticatorFunc func(ctx context.Context, msg *kafka.Message) error

func (f AuthenticatorFunc) Authenticate(ctx context.Context, msg *kafka.Message) error {
	return f(ctx, msg)
}

// AllowAll trusts every message.
// TODO: replace with signed service tokens once the game service sends an
// auth header on its records.
var AllowAll Authenticator = AuthenticatorFunc(func(context.Context, *kafka.Message) error { return nil })
