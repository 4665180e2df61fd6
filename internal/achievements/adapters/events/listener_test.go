package events

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcadia/internal/achievements/models"
	"arcadia/internal/achievements/ports"
	"arcadia/internal/achievements/service"
	"arcadia/internal/achievements/store/catalog"
	"arcadia/internal/achievements/store/grants"
	"arcadia/internal/achievements/store/statistics"
	shared "arcadia/internal/shared/events"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/tx"
	"arcadia/pkg/testutil"
)

type resolverFunc func(ctx context.Context, lobby domain.LobbyID) (ports.GameSession, error)

func (f resolverFunc) ResolveGame(ctx context.Context, lobby domain.LobbyID) (ports.GameSession, error) {
	return f(ctx, lobby)
}

func TestGameEndedListenerSkipsLobbiesWithoutGame(t *testing.T) {
	logs := &testutil.LogBuffer{}
	resolver := resolverFunc(func(context.Context, domain.LobbyID) (ports.GameSession, error) {
		return ports.GameSession{}, dErrors.New(dErrors.CodeNotFound, "lobby has no game")
	})
	l := NewGameEndedListener(resolver, nil, logs.Logger())

	err := l.Handle(context.Background(), shared.GameEndedDomainEvent{LobbyID: domain.NewLobbyID()})
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), "skipping evaluation")
}

func TestGameEndedScenario(t *testing.T) {
	ctx := testutil.Context(t, 5*time.Second)
	bus := events.NewBus(events.WithLogger(testutil.Logger(t)), events.WithMetrics(events.NewMetricsWith(prometheus.NewRegistry())))
	t.Cleanup(bus.Close)

	held := grants.NewInMemory()
	svc := service.New(catalog.NewInMemory(), held, statistics.NewInMemory(), tx.NewMemoryRunner(bus), bus,
		service.WithLogger(testutil.Logger(t)))
	game := domain.NewGameID()
	started := time.Now().Add(-time.Minute)
	resolver := resolverFunc(func(context.Context, domain.LobbyID) (ports.GameSession, error) {
		return ports.GameSession{GameID: game, StartedAt: &started}, nil
	})
	NewGameEndedListener(resolver, svc, testutil.Logger(t)).Register(bus)

	winner, loser := domain.NewPlayerID(), domain.NewPlayerID()
	evt := shared.GameEndedDomainEvent{LobbyID: domain.NewLobbyID(), WinnerID: &winner, PlayerIDs: []domain.PlayerID{winner, loser}}

	testutil.Given(t, "a game with a first-victory achievement", func(t *testing.T) {
		_, err := svc.DefineAchievement(ctx, models.Definition{
			GameID:   game,
			Name:     "First Victory",
			Category: models.CategoryProgression,
			Rarity:   models.RarityCommon,
			Criteria: models.CriteriaOneTimeEvent,
		})
		require.NoError(t, err)
	})

	testutil.When(t, "the game ended event is delivered twice", func(t *testing.T) {
		bus.Publish(ctx, evt, evt)
		bus.Wait()

		testutil.Then(t, "the winner holds the achievement exactly once", func(t *testing.T) {
			assert.Equal(t, 1, held.Count())
			list, err := svc.PlayerAchievements(ctx, winner, nil)
			require.NoError(t, err)
			assert.Len(t, list, 1)
			list, err = svc.PlayerAchievements(ctx, loser, nil)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	})
}
