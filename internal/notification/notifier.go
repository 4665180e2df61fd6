// Package notification delivers user-facing notifications for events other
// modules publish. Delivery is fire-and-forget: a notification that cannot
// be delivered is logged and dropped.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"arcadia/pkg/domain"
	"arcadia/pkg/platform/circuit"
)

type Kind string

const (
	KindLobbyInvite         Kind = "LOBBY_INVITE"
	KindFriendRequest       Kind = "FRIEND_REQUEST"
	KindAchievementUnlocked Kind = "ACHIEVEMENT_UNLOCKED"
	KindMessageReceived     Kind = "MESSAGE_RECEIVED"
)

// Notification is addressed to one player. Data holds kind-specific ids,
// never message content or private profile fields.
type Notification struct {
	Kind        Kind              `json:"kind"`
	RecipientID domain.PlayerID   `json:"recipientId"`
	Data        map[string]string `json:"data"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ChannelPrefix is followed by the recipient's player id.
const ChannelPrefix = "notifications:"

func Channel(player domain.PlayerID) string {
	return ChannelPrefix + player.String()
}

// RedisNotifier publishes each notification as JSON on the recipient's
// pub/sub channel. Gateways subscribed to the channel push it to clients.
type RedisNotifier struct {
	client redis.Cmdable
}

func NewRedisNotifier(client redis.Cmdable) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := r.client.Publish(ctx, Channel(n.RecipientID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log. It is the fallback when no
// Redis is configured or the breaker is open.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"recipient_id", n.RecipientID,
		"data", n.Data,
	)
	return nil
}

// GuardedNotifier sends through primary while its breaker is closed and
// through fallback otherwise.
type GuardedNotifier struct {
	primary  Notifier
	fallback Notifier
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewGuardedNotifier(primary, fallback Notifier, breaker *circuit.Breaker, logger *slog.Logger) *GuardedNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if breaker == nil {
		breaker = circuit.New("notifications")
	}
	return &GuardedNotifier{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (g *GuardedNotifier) Notify(ctx context.Context, n Notification) error {
	if !g.breaker.Allow() {
		return g.fallback.Notify(ctx, n)
	}
	if err := g.primary.Notify(ctx, n); err != nil {
		_, change := g.breaker.RecordFailure()
		if change.Opened {
			g.logger.WarnContext(ctx, "notification circuit opened", "breaker", g.breaker.Name(), "error", err)
		}
		return g.fallback.Notify(ctx, n)
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "notification circuit closed", "breaker", g.breaker.Name())
	}
	return nil
}
