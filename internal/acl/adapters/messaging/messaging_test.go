package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"arcadia/internal/acl/adapters"
	"arcadia/internal/acl/ports"
	"arcadia/internal/acl/ports/mocks"
	"arcadia/internal/platform/kafka"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/outbox"
	"arcadia/pkg/testutil"
)

type memoryDedupe struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (d *memoryDedupe) FirstSeen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memoryDedupe) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

type InboundSuite struct {
	suite.Suite
	ctx     context.Context
	games   *mocks.MockGameContextPort
	players *mocks.MockPlayerContextPort
	dedupe  *memoryDedupe
	logs    *testutil.LogBuffer
	inbound *Inbound
	offset  int64
}

func TestInboundSuite(t *testing.T) {
	suite.Run(t, new(InboundSuite))
}

func (s *InboundSuite) SetupTest() {
	s.ctx = context.Background()
	ctrl := gomock.NewController(s.T())
	s.games = mocks.NewMockGameContextPort(ctrl)
	s.players = mocks.NewMockPlayerContextPort(ctrl)
	s.dedupe = &memoryDedupe{seen: map[string]bool{}}
	s.logs = &testutil.LogBuffer{}
	s.inbound = NewInbound(s.games, s.players, WithDeduplicator(s.dedupe), WithLogger(s.logs.Logger()))
}

func (s *InboundSuite) record(topic string, payload any) *kafka.Message {
	value, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.offset++
	return &kafka.Message{Topic: topic, Value: value, Offset: s.offset, Headers: map[string]string{}}
}

func (s *InboundSuite) TestAchievementAcquired() {
	game, player := domain.NewGameID(), domain.NewPlayerID()
	msg := s.record("game.achievements", AchievementAcquiredMessage{
		GameID:                 game.String(),
		PlayerID:               player.String(),
		PlayerName:             "white",
		AchievementType:        "FIRST_BLOOD",
		AchievementDescription: "Capture a piece",
		MessageType:            MessageTypeAchievementAcquired,
		Timestamp:              time.Now(),
	})

	s.games.EXPECT().
		HandleThirdPartyAchievementUnlocked(gomock.Any(), game, player, "FIRST_BLOOD", "FIRST_BLOOD", "Capture a piece").
		Return(nil).
		Times(1)

	s.Require().NoError(s.inbound.AchievementAcquired().Handle(s.ctx, msg))

	s.Run("a redelivered record is skipped", func() {
		s.Require().NoError(s.inbound.AchievementAcquired().Handle(s.ctx, msg))
	})
}

func (s *InboundSuite) TestFailuresReleaseTheClaim() {
	game, player := domain.NewGameID(), domain.NewPlayerID()
	msg := s.record("game.achievements", AchievementAcquiredMessage{
		GameID: game.String(), PlayerID: player.String(), AchievementType: "PAWN_POWER",
	})

	gomock.InOrder(
		s.games.EXPECT().HandleThirdPartyAchievementUnlocked(gomock.Any(), game, player, "PAWN_POWER", "PAWN_POWER", "").
			Return(dErrors.New(dErrors.CodeInternal, "db down")),
		s.games.EXPECT().HandleThirdPartyAchievementUnlocked(gomock.Any(), game, player, "PAWN_POWER", "PAWN_POWER", "").
			Return(nil),
	)

	s.Error(s.inbound.AchievementAcquired().Handle(s.ctx, msg))
	s.NoError(s.inbound.AchievementAcquired().Handle(s.ctx, msg))
}

func (s *InboundSuite) TestMalformedRecordsAreDropped() {
	for name, msg := range map[string]*kafka.Message{
		"not json":       {Topic: "game.achievements", Value: []byte("{"), Offset: 100},
		"bad player id":  s.record("game.achievements", AchievementAcquiredMessage{GameID: domain.NewGameID().String(), PlayerID: "nope", AchievementType: "X"}),
		"missing code":   s.record("game.achievements", AchievementAcquiredMessage{GameID: domain.NewGameID().String(), PlayerID: domain.NewPlayerID().String()}),
		"wrong msg type": s.record("game.achievements", AchievementAcquiredMessage{MessageType: MessageTypeGameEnded}),
	} {
		s.NoError(s.inbound.AchievementAcquired().Handle(s.ctx, msg), name)
	}
	s.Contains(s.logs.String(), "dropping malformed message")
}

func (s *InboundSuite) TestGameEndedWithPlayerIDs() {
	lobby, white, black := domain.NewLobbyID(), domain.NewPlayerID(), domain.NewPlayerID()
	winner := white.String()

	s.games.EXPECT().HandleGameEnded(gomock.Any(), lobby, &white, []domain.PlayerID{white, black}).Return(nil)

	s.NoError(s.inbound.GameEnded().Handle(s.ctx, s.record("game.ended", GameEndedMessage{
		LobbyID:   lobby.String(),
		WinnerID:  &winner,
		PlayerIDs: []string{white.String(), black.String()},
		EndReason: "CHECKMATE",
	})))
}

func (s *InboundSuite) TestGameEndedByUsername() {
	lobby, white, black := domain.NewLobbyID(), domain.NewPlayerID(), domain.NewPlayerID()
	lookalike := domain.NewPlayerID()

	s.players.EXPECT().FindPlayerIDsByUsername(gomock.Any(), "magnus").Return([]domain.PlayerID{white, lookalike}, nil)
	s.players.EXPECT().GetPlayerInfos(gomock.Any(), []domain.PlayerID{white, lookalike}).Return([]ports.PlayerInfo{
		{PlayerID: white, Username: "Magnus"},
		{PlayerID: lookalike, Username: "magnus2"},
	}, nil)
	s.players.EXPECT().FindPlayerIDsByUsername(gomock.Any(), "hikaru").Return([]domain.PlayerID{black}, nil)
	s.players.EXPECT().GetPlayerInfos(gomock.Any(), []domain.PlayerID{black}).Return([]ports.PlayerInfo{
		{PlayerID: black, Username: "hikaru"},
	}, nil)
	s.games.EXPECT().HandleGameEnded(gomock.Any(), lobby, nil, []domain.PlayerID{white, black}).Return(nil)

	winner := white.String()
	s.NoError(s.inbound.GameEnded().Handle(s.ctx, s.record("game.ended", GameEndedMessage{
		LobbyID:     lobby.String(),
		WinnerID:    &winner,
		WhitePlayer: "magnus",
		BlackPlayer: "hikaru",
		EndReason:   "draw",
	})))
}

func (s *InboundSuite) TestUnauthenticatedRecordsAreRejected() {
	in := NewInbound(s.games, s.players, WithAuthenticator(AuthenticatorFunc(func(context.Context, *kafka.Message) error {
		return errors.New("missing token")
	})))

	err := in.GameEnded().Handle(s.ctx, s.record("game.ended", GameEndedMessage{LobbyID: domain.NewLobbyID().String()}))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.True(kafka.IsPermanent(err))
}

func (s *InboundSuite) TestTransientFailuresAreRetriedNotDropped() {
	game, player := domain.NewGameID(), domain.NewPlayerID()
	msg := s.record("game.achievements", AchievementAcquiredMessage{
		GameID: game.String(), PlayerID: player.String(), AchievementType: "CASTLE",
	})
	gomock.InOrder(
		s.games.EXPECT().HandleThirdPartyAchievementUnlocked(gomock.Any(), game, player, "CASTLE", "CASTLE", "").
			Return(dErrors.New(dErrors.CodeInternal, "db down")),
		s.games.EXPECT().HandleThirdPartyAchievementUnlocked(gomock.Any(), game, player, "CASTLE", "CASTLE", "").
			Return(nil),
	)

	consumer := kafka.NewConsumer(nil, s.logs.Logger(), kafka.WithRetryIntervals(time.Millisecond, time.Millisecond))
	s.NoError(consumer.Process(s.ctx, s.inbound.AchievementAcquired(), msg))
	s.True(s.dedupe.seen[MessageKey(msg)])
}

func (s *InboundSuite) TestDedupeOutageFailsOpen() {
	s.dedupe.err = errors.New("redis down")
	lobby, p := domain.NewLobbyID(), domain.NewPlayerID()
	s.games.EXPECT().HandleGameEnded(gomock.Any(), lobby, nil, []domain.PlayerID{p}).Return(nil)

	s.NoError(s.inbound.GameEnded().Handle(s.ctx, s.record("game.ended", GameEndedMessage{
		LobbyID: lobby.String(), PlayerIDs: []string{p.String()},
	})))
	s.Contains(s.logs.String(), "processing anyway")
}

func (s *InboundSuite) TestRoutes() {
	router := kafka.NewRouter(nil)
	s.inbound.Routes(router, "game.achievements", "game.ended")
	s.ElementsMatch([]string{"game.achievements", "game.ended"}, router.Topics())
}

func TestMessageKey(t *testing.T) {
	assert.Equal(t, "game.ended:3:42", MessageKey(&kafka.Message{Topic: "game.ended", Partition: 3, Offset: 42}))
	assert.Equal(t, "game.ended:abc", MessageKey(&kafka.Message{Topic: "game.ended", Headers: map[string]string{"message-id": "abc"}}))
}

type sinkFunc func(ctx context.Context, topic string, msgs ...outbox.Message) error

func (f sinkFunc) Produce(ctx context.Context, topic string, msgs ...outbox.Message) error {
	return f(ctx, topic, msgs...)
}

func TestSessionRequester(t *testing.T) {
	var topic string
	var sent []outbox.Message
	requester := NewSessionRequester(sinkFunc(func(_ context.Context, tp string, msgs ...outbox.Message) error {
		topic = tp
		sent = append(sent, msgs...)
		return nil
	}), "game.session.start.requested")

	lobby, game := domain.NewLobbyID(), domain.NewGameID()
	white, black := domain.NewPlayerID(), domain.NewPlayerID()
	require.NoError(t, requester.RequestSession(context.Background(), adapters.ExternalSession{
		InstanceID: "instance-1",
		LobbyID:    lobby,
		GameID:     game,
		GameType:   "chess",
		Players:    []ports.PlayerInfo{{PlayerID: white, Username: "white"}, {PlayerID: black, Username: "black"}},
	}))

	assert.Equal(t, "game.session.start.requested", topic)
	require.Len(t, sent, 1)
	assert.Equal(t, lobby.String(), string(sent[0].Key))

	var msg SessionStartRequestedMessage
	require.NoError(t, json.Unmarshal(sent[0].Value, &msg))
	assert.Equal(t, "instance-1", msg.SessionID)
	assert.Equal(t, white.String(), msg.StartingPlayerID)
	assert.Equal(t, []string{white.String(), black.String()}, msg.PlayerIDs)
	assert.Equal(t, MessageTypeSessionStartRequested, msg.Type)
	assert.Equal(t, msg.EventID, sent[0].Headers["message-id"])

	assert.Error(t, requester.RequestSession(context.Background(), adapters.ExternalSession{InstanceID: "empty"}))
}
