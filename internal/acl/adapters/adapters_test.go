package adapters_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	achievementadapters "arcadia/internal/achievements/adapters/events"
	achievementmodels "arcadia/internal/achievements/models"
	achievementservice "arcadia/internal/achievements/service"
	"arcadia/internal/achievements/store/catalog"
	"arcadia/internal/achievements/store/grants"
	"arcadia/internal/achievements/store/statistics"
	"arcadia/internal/acl/adapters"
	"arcadia/internal/acl/ports"
	"arcadia/internal/acl/ports/mocks"
	lobbyadapters "arcadia/internal/lobby/adapters/events"
	lobbyevents "arcadia/internal/lobby/events"
	lobbymodels "arcadia/internal/lobby/models"
	lobbyservice "arcadia/internal/lobby/service"
	externalstore "arcadia/internal/lobby/store/external"
	lobbystore "arcadia/internal/lobby/store/lobby"
	playerservice "arcadia/internal/player/service"
	playerstore "arcadia/internal/player/store"
	shared "arcadia/internal/shared/events"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/tx"
	"arcadia/pkg/testutil"
)

type PlayerContextSuite struct {
	suite.Suite
	ctx     context.Context
	players *playerservice.Service
	adapter *adapters.PlayerContextAdapter
}

func TestPlayerContextSuite(t *testing.T) {
	suite.Run(t, new(PlayerContextSuite))
}

func (s *PlayerContextSuite) SetupTest() {
	s.ctx = context.Background()
	s.players = playerservice.New(playerstore.NewInMemory(), tx.NewMemoryRunner(nil))
	s.adapter = adapters.NewPlayerContextAdapter(s.players, testutil.Logger(s.T()))
}

func (s *PlayerContextSuite) register(username string) domain.PlayerID {
	addr := "1 Private Lane"
	p, err := s.players.Register(s.ctx, playerservice.RegisterCommand{
		Username:        username,
		Email:           username + "@example.com",
		Address:         addr,
		Bio:             "plays " + username,
		GamePreferences: []string{"chess"},
	})
	s.Require().NoError(err)
	return p.ID
}

func (s *PlayerContextSuite) TestLookups() {
	carl := s.register("carl")
	carlsen := s.register("magnuscarlsen")
	s.register("hikaru")

	s.Run("username search puts exact matches first", func() {
		ids, err := s.adapter.FindPlayerIDsByUsername(s.ctx, "CARL")
		s.Require().NoError(err)
		s.Equal([]domain.PlayerID{carl, carlsen}, ids)
	})

	s.Run("existence", func() {
		ok, err := s.adapter.PlayerExists(s.ctx, carl)
		s.Require().NoError(err)
		s.True(ok)

		ok, err = s.adapter.PlayerExists(s.ctx, domain.NewPlayerID())
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("info is the public projection", func() {
		info, found, err := s.adapter.GetPlayerInfo(s.ctx, carl)
		s.Require().NoError(err)
		s.True(found)
		s.Equal(ports.PlayerInfo{
			PlayerID:        carl,
			Username:        "carl",
			Bio:             "plays carl",
			GamePreferences: []string{"chess"},
		}, info)
	})

	s.Run("unknown players are absent, not errors", func() {
		_, found, err := s.adapter.GetPlayerInfo(s.ctx, domain.NewPlayerID())
		s.NoError(err)
		s.False(found)
	})

	s.Run("batch lookups drop unknown ids and keep order", func() {
		infos, err := s.adapter.GetPlayerInfos(s.ctx, []domain.PlayerID{carlsen, domain.NewPlayerID(), carl})
		s.Require().NoError(err)
		s.Require().Len(infos, 2)
		s.Equal(carlsen, infos[0].PlayerID)
		s.Equal(carl, infos[1].PlayerID)
	})

	s.Run("empty batch", func() {
		infos, err := s.adapter.GetPlayerInfos(s.ctx, nil)
		s.Require().NoError(err)
		s.Empty(infos)
	})
}

func TestLobbyGameAdapter(t *testing.T) {
	ctx := context.Background()
	svc := lobbyservice.New(lobbystore.NewInMemory(), externalstore.NewInMemory(), tx.NewMemoryRunner(nil), nil)
	resolver := adapters.NewLobbyGameAdapter(svc)
	host, guest := domain.NewPlayerID(), domain.NewPlayerID()

	l, err := svc.CreateLobby(ctx, host, "resolver", "", 2, false)
	require.NoError(t, err)

	t.Run("a lobby that never started has no game", func(t *testing.T) {
		_, err := resolver.ResolveGame(ctx, l.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("unknown lobby", func(t *testing.T) {
		_, err := resolver.ResolveGame(ctx, domain.NewLobbyID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("a started lobby resolves to its game", func(t *testing.T) {
		game := domain.NewGameID()
		_, err := svc.JoinLobby(ctx, l.ID, guest)
		require.NoError(t, err)
		_, err = svc.StartLobby(ctx, l.ID, host, game)
		require.NoError(t, err)

		session, err := resolver.ResolveGame(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, game, session.GameID)
		assert.NotNil(t, session.StartedAt)
	})
}

type recordedSessions struct {
	sessions []adapters.ExternalSession
	err      error
}

func (r *recordedSessions) RequestSession(_ context.Context, s adapters.ExternalSession) error {
	if r.err != nil {
		return r.err
	}
	r.sessions = append(r.sessions, s)
	return nil
}

type ExternalGameSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	players  *mocks.MockPlayerContextPort
	lobbies  *lobbyservice.Service
	external *recordedSessions
	handler  *adapters.ExternalGameLobbyHandler
	chess    domain.GameID
	host     domain.PlayerID
	guest    domain.PlayerID
	lobby    *lobbymodels.Lobby
}

func TestExternalGameSuite(t *testing.T) {
	suite.Run(t, new(ExternalGameSuite))
}

func (s *ExternalGameSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.players = mocks.NewMockPlayerContextPort(s.ctrl)
	s.lobbies = lobbyservice.New(lobbystore.NewInMemory(), externalstore.NewInMemory(), tx.NewMemoryRunner(nil), nil)
	s.external = &recordedSessions{}
	s.chess = domain.NewGameID()
	s.handler = adapters.NewExternalGameLobbyHandler(
		map[domain.GameID]string{s.chess: "chess"},
		s.players, s.lobbies, s.external, testutil.Logger(s.T()),
	)

	s.host, s.guest = domain.NewPlayerID(), domain.NewPlayerID()
	l, err := s.lobbies.CreateLobby(s.ctx, s.host, "external", "", 2, false)
	s.Require().NoError(err)
	s.lobby = l
}

func (s *ExternalGameSuite) started(game domain.GameID) lobbyevents.LobbyStartedEvent {
	return lobbyevents.LobbyStartedEvent{
		LobbyID:   s.lobby.ID,
		GameID:    game,
		PlayerIDs: []domain.PlayerID{s.host, s.guest},
		StartedAt: time.Now(),
	}
}

func (s *ExternalGameSuite) roster() []ports.PlayerInfo {
	return []ports.PlayerInfo{
		{PlayerID: s.host, Username: "white"},
		{PlayerID: s.guest, Username: "black"},
	}
}

func (s *ExternalGameSuite) TestPlatformGamesAreIgnored() {
	s.NoError(s.handler.Handle(s.ctx, s.started(domain.NewGameID())))
	s.Empty(s.external.sessions)
}

func (s *ExternalGameSuite) TestOpensSessionAndStoresMapping() {
	s.players.EXPECT().GetPlayerInfos(gomock.Any(), []domain.PlayerID{s.host, s.guest}).Return(s.roster(), nil).Times(2)

	s.Require().NoError(s.handler.Handle(s.ctx, s.started(s.chess)))
	s.Require().Len(s.external.sessions, 1)
	session := s.external.sessions[0]
	s.Equal("chess", session.GameType)
	s.Equal(s.roster(), session.Players)

	in, err := s.lobbies.ExternalGameInstanceByType(s.ctx, s.lobby.ID, "chess")
	s.Require().NoError(err)
	s.Equal(session.InstanceID, in.ExternalGameInstanceID)

	s.Run("a redelivery asks for the same session", func() {
		s.Require().NoError(s.handler.Handle(s.ctx, s.started(s.chess)))
		s.Require().Len(s.external.sessions, 2)
		s.Equal(session.InstanceID, s.external.sessions[1].InstanceID)
	})
}

func (s *ExternalGameSuite) TestUnknownPlayersAreLoggedAndDropped() {
	s.players.EXPECT().GetPlayerInfos(gomock.Any(), gomock.Len(2)).Return(s.roster()[:1], nil)

	s.NoError(s.handler.Handle(s.ctx, s.started(s.chess)))
	s.Empty(s.external.sessions)
}

func (s *ExternalGameSuite) TestServiceFailuresGoBackToTheBus() {
	s.players.EXPECT().GetPlayerInfos(gomock.Any(), gomock.Any()).Return(s.roster(), nil)
	s.external.err = errors.New("connection refused")

	err := s.handler.Handle(s.ctx, s.started(s.chess))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ExternalGameSuite) TestPeerReplaysDoNotRequestSessions() {
	bus := events.NewBus(events.WithMetrics(events.NewMetricsWith(prometheus.NewRegistry())))
	defer bus.Close()
	s.handler.Register(bus)
	s.players.EXPECT().GetPlayerInfos(gomock.Any(), []domain.PlayerID{s.host, s.guest}).Return(s.roster(), nil).Times(1)

	bus.Publish(events.WithReplayed(s.ctx), s.started(s.chess))
	bus.Wait()
	s.Empty(s.external.sessions)

	bus.Publish(s.ctx, s.started(s.chess))
	bus.Wait()
	s.Len(s.external.sessions, 1)
}

func TestParseExternalGames(t *testing.T) {
	game := domain.NewGameID()
	parsed, err := adapters.ParseExternalGames(map[string]string{game.String(): "chess"})
	require.NoError(t, err)
	assert.Equal(t, map[domain.GameID]string{game: "chess"}, parsed)

	_, err = adapters.ParseExternalGames(map[string]string{"not-a-uuid": "chess"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}

func TestGameContextAdapterThirdParty(t *testing.T) {
	ctx := context.Background()
	grantStore := grants.NewInMemory()
	achievements := achievementservice.New(catalog.NewInMemory(), grantStore, statistics.NewInMemory(), tx.NewMemoryRunner(nil), nil)
	adapter := adapters.NewGameContextAdapter(nil, achievements, testutil.Logger(t))
	game, player := domain.NewGameID(), domain.NewPlayerID()

	for range 2 {
		require.NoError(t, adapter.HandleThirdPartyAchievementUnlocked(ctx, game, player, "CHECKMATE_IN_4", "Scholar", "Mate in four"))
	}
	assert.Equal(t, 1, grantStore.Count())

	held, err := achievements.PlayerAchievements(ctx, player, &game)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.True(t, held[0].Achievement.ThirdParty)
	assert.Equal(t, "Scholar", held[0].Achievement.Name)

	err = adapter.HandleThirdPartyAchievementUnlocked(ctx, game, domain.PlayerID{}, "CODE", "", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}

func TestGameEndedScenario(t *testing.T) {
	ctx := testutil.Context(t, 5*time.Second)
	bus := events.NewBus(events.WithLogger(testutil.Logger(t)), events.WithMetrics(events.NewMetricsWith(prometheus.NewRegistry())))
	t.Cleanup(bus.Close)

	lobbies := lobbyservice.New(lobbystore.NewInMemory(), externalstore.NewInMemory(), tx.NewMemoryRunner(bus), bus)
	grantStore := grants.NewInMemory()
	achievements := achievementservice.New(catalog.NewInMemory(), grantStore, statistics.NewInMemory(), tx.NewMemoryRunner(bus), bus)
	lobbyadapters.NewGameEndedListener(lobbies, testutil.Logger(t)).Register(bus)
	achievementadapters.NewGameEndedListener(adapters.NewLobbyGameAdapter(lobbies), achievements, testutil.Logger(t)).Register(bus)
	gameContext := adapters.NewGameContextAdapter(bus, achievements, testutil.Logger(t))

	host, guest := domain.NewPlayerID(), domain.NewPlayerID()
	game := domain.NewGameID()
	var lobbyID domain.LobbyID

	testutil.Given(t, "a running game with a first-win achievement", func(t *testing.T) {
		_, err := achievements.DefineAchievement(ctx, achievementmodels.Definition{
			GameID:   game,
			Name:     "First Victory",
			Category: achievementmodels.CategoryProgression,
			Rarity:   achievementmodels.RarityCommon,
			Criteria: achievementmodels.CriteriaOneTimeEvent,
		})
		require.NoError(t, err)

		l, err := lobbies.CreateLobby(ctx, host, "final", "", 2, false)
		require.NoError(t, err)
		lobbyID = l.ID
		_, err = lobbies.JoinLobby(ctx, lobbyID, guest)
		require.NoError(t, err)
		_, err = lobbies.StartLobby(ctx, lobbyID, host, game)
		require.NoError(t, err)
	})

	testutil.When(t, "the external service reports the game ended twice", func(t *testing.T) {
		for range 2 {
			require.NoError(t, gameContext.HandleGameEnded(ctx, lobbyID, &host, []domain.PlayerID{host, guest, host}))
		}
		bus.Wait()

		testutil.Then(t, "the lobby is waiting again", func(t *testing.T) {
			l, err := lobbies.GetLobby(ctx, lobbyID)
			require.NoError(t, err)
			assert.Equal(t, lobbymodels.StatusWaiting, l.Status)
		})

		testutil.Then(t, "only the winner holds the achievement, once", func(t *testing.T) {
			assert.Equal(t, 1, grantStore.Count())
			held, err := achievements.PlayerAchievements(ctx, host, nil)
			require.NoError(t, err)
			assert.Len(t, held, 1)
		})
	})
}

func TestHandleGameEndedPublishes(t *testing.T) {
	var got []events.Event
	publisher := events.PublisherFunc(func(_ context.Context, evts ...events.Event) { got = append(got, evts...) })
	adapter := adapters.NewGameContextAdapter(publisher, nil, testutil.Logger(t))
	lobbyID, winner := domain.NewLobbyID(), domain.NewPlayerID()

	require.NoError(t, adapter.HandleGameEnded(context.Background(), lobbyID, &domain.PlayerID{}, []domain.PlayerID{winner, {}}))
	require.Len(t, got, 1)
	evt := got[0].(shared.GameEndedDomainEvent)
	assert.Equal(t, lobbyID, evt.LobbyID)
	assert.False(t, evt.HasWinner())
	assert.Equal(t, []domain.PlayerID{winner}, evt.PlayerIDs)

	err := adapter.HandleGameEnded(context.Background(), domain.LobbyID{}, nil, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}
