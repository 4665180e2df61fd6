package notification

import (
	"context"
	"log/slog"
	"time"

	achievementevents "arcadia/internal/achievements/events"
	chatevents "arcadia/internal/chat/events"
	friendevents "arcadia/internal/friends/events"
	lobbyevents "arcadia/internal/lobby/events"
	"arcadia/pkg/platform/events"
)

// Listener turns domain events into notifications.
type Listener struct {
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewListener(notifier Notifier, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{notifier: notifier, logger: logger, now: time.Now}
}

// Register subscribes one listener per notified event type.
func (l *Listener) Register(bus *events.Bus, opts ...events.SubscribeOption) {
	events.On(bus, "notification.lobby-invite", l.onLobbyInvite, opts...)
	events.On(bus, "notification.friend-request", l.onFriendRequest, opts...)
	events.On(bus, "notification.achievement", l.onAchievement, opts...)
	events.On(bus, "notification.message", l.onMessage, opts...)
}

func (l *Listener) onLobbyInvite(ctx context.Context, e lobbyevents.LobbyInviteEvent) error {
	data := map[string]string{"lobbyId": e.LobbyID.String(), "hostId": e.HostID.String()}
	if e.GameID != nil {
		data["gameId"] = e.GameID.String()
	}
	l.send(ctx, Notification{Kind: KindLobbyInvite, RecipientID: e.InvitedPlayerID, Data: data})
	return nil
}

func (l *Listener) onFriendRequest(ctx context.Context, e friendevents.FriendRequestEvent) error {
	l.send(ctx, Notification{
		Kind:        KindFriendRequest,
		RecipientID: e.AddresseeID,
		Data:        map[string]string{"requesterId": e.RequesterID.String()},
	})
	return nil
}

func (l *Listener) onAchievement(ctx context.Context, e achievementevents.AchievementAcquiredEvent) error {
	l.send(ctx, Notification{
		Kind:        KindAchievementUnlocked,
		RecipientID: e.PlayerID,
		Data: map[string]string{
			"achievementId": e.AchievementID.String(),
			"gameId":        e.GameID.String(),
			"name":          e.Name,
		},
	})
	return nil
}

func (l *Listener) onMessage(ctx context.Context, e chatevents.MessageSentEvent) error {
	l.send(ctx, Notification{
		Kind:        KindMessageReceived,
		RecipientID: e.ReceiverID,
		Data:        map[string]string{"messageId": e.MessageID.String(), "senderId": e.SenderID.String()},
	})
	return nil
}

func (l *Listener) send(ctx context.Context, n Notification) {
	n.CreatedAt = l.now()
	if err := l.notifier.Notify(ctx, n); err != nil {
		l.logger.WarnContext(ctx, "notification dropped", "kind", n.Kind, "recipient_id", n.RecipientID, "error", err)
	}
}
