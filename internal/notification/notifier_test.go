package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	achievementevents "arcadia/internal/achievements/events"
	chatevents "arcadia/internal/chat/events"
	friendevents "arcadia/internal/friends/events"
	lobbyevents "arcadia/internal/lobby/events"
	"arcadia/pkg/domain"
	"arcadia/pkg/platform/circuit"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	err  error
	sent []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestGuardedNotifierFallsBackWhileOpen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	primary := &recordingNotifier{err: errors.New("redis down")}
	fallback := &recordingNotifier{}
	breaker := circuit.New("test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	g := NewGuardedNotifier(primary, fallback, breaker, testutil.Logger(t))
	n := Notification{Kind: KindFriendRequest, RecipientID: domain.NewPlayerID()}

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Notify(context.Background(), n))
	}
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, 3, fallback.count())

	primary.mu.Lock()
	primary.err = nil
	primary.mu.Unlock()

	require.NoError(t, g.Notify(context.Background(), n))
	assert.Equal(t, 0, primary.count(), "no trial before the cooldown")

	now = now.Add(2 * time.Minute)
	require.NoError(t, g.Notify(context.Background(), n))
	assert.Equal(t, 1, primary.count())
	assert.False(t, breaker.IsOpen())
}

func TestListenerNotifiesRecipients(t *testing.T) {
	bus := events.NewBus(events.WithLogger(testutil.Logger(t)), events.WithMetrics(events.NewMetricsWith(prometheus.NewRegistry())))
	t.Cleanup(bus.Close)
	rec := &recordingNotifier{}
	NewListener(rec, testutil.Logger(t)).Register(bus)

	host, invited, requester, addressee := domain.NewPlayerID(), domain.NewPlayerID(), domain.NewPlayerID(), domain.NewPlayerID()
	bus.Publish(context.Background(),
		lobbyevents.LobbyInviteEvent{LobbyID: domain.NewLobbyID(), HostID: host, InvitedPlayerID: invited},
		friendevents.FriendRequestEvent{RequesterID: requester, AddresseeID: addressee},
		achievementevents.AchievementAcquiredEvent{PlayerID: host, AchievementID: domain.NewAchievementID(), GameID: domain.NewGameID(), Name: "First Victory"},
		chatevents.MessageSentEvent{MessageID: domain.NewMessageID(), SenderID: host, ReceiverID: addressee},
	)
	bus.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	got := map[Kind]domain.PlayerID{}
	for _, n := range rec.sent {
		got[n.Kind] = n.RecipientID
		assert.False(t, n.CreatedAt.IsZero())
	}
	assert.Equal(t, map[Kind]domain.PlayerID{
		KindLobbyInvite:         invited,
		KindFriendRequest:       addressee,
		KindAchievementUnlocked: host,
		KindMessageReceived:     addressee,
	}, got)
}

func TestListenerSwallowsNotifierFailures(t *testing.T) {
	logs := &testutil.LogBuffer{}
	l := NewListener(&recordingNotifier{err: errors.New("boom")}, logs.Logger())
	err := l.onFriendRequest(context.Background(), friendevents.FriendRequestEvent{RequesterID: domain.NewPlayerID(), AddresseeID: domain.NewPlayerID()})
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), "notification dropped")
}
