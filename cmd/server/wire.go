package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	achievementadapters "arcadia/internal/achievements/adapters/events"
	achievementevents "arcadia/internal/achievements/events"
	achievementmetrics "arcadia/internal/achievements/metrics"
	achievementports "arcadia/internal/achievements/ports"
	achievementservice "arcadia/internal/achievements/service"
	"arcadia/internal/achievements/store/catalog"
	"arcadia/internal/achievements/store/grants"
	"arcadia/internal/achievements/store/statistics"
	"arcadia/internal/acl/adapters"
	"arcadia/internal/acl/adapters/messaging"
	chatevents "arcadia/internal/chat/events"
	chatservice "arcadia/internal/chat/service"
	chatstore "arcadia/internal/chat/store"
	friendevents "arcadia/internal/friends/events"
	friendports "arcadia/internal/friends/ports"
	friendservice "arcadia/internal/friends/service"
	"arcadia/internal/friends/store/friendship"
	lobbyadapters "arcadia/internal/lobby/adapters/events"
	lobbyevents "arcadia/internal/lobby/events"
	lobbymetrics "arcadia/internal/lobby/metrics"
	lobbyports "arcadia/internal/lobby/ports"
	lobbyservice "arcadia/internal/lobby/service"
	externalstore "arcadia/internal/lobby/store/external"
	lobbystore "arcadia/internal/lobby/store/lobby"
	"arcadia/internal/notification"
	"arcadia/internal/platform/config"
	"arcadia/internal/platform/kafka"
	"arcadia/internal/platform/metrics"
	"arcadia/internal/platform/postgres"
	redisplatform "arcadia/internal/platform/redis"
	playerports "arcadia/internal/player/ports"
	playerservice "arcadia/internal/player/service"
	playerstore "arcadia/internal/player/store"
	shared "arcadia/internal/shared/events"
	"arcadia/pkg/platform/circuit"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/outbox"
	"arcadia/pkg/platform/tx"
)

type worker struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	bus      *events.Bus
	health   *metrics.Health
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	players      *playerservice.Service
	lobbies      *lobbyservice.Service
	friends      *friendservice.Service
	achievements *achievementservice.Service
	chat         *chatservice.Service

	workers []worker
	closers []func() error
}

func (a *application) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close resource", "error", err)
		}
	}
}

// stores bundles the persistence adapters chosen by ARCADIA_STORE.
type stores struct {
	runner      tx.Runner
	outbox      *outbox.Store
	players     playerports.PlayerStore
	lobbies     lobbyports.LobbyStore
	instances   lobbyports.ExternalGameInstanceStore
	friendships friendports.FriendshipStore
	catalog     achievementports.AchievementStore
	grants      achievementports.UserAchievementStore
	statistics  achievementports.StatisticsStore
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*application, error) {
	app := &application{
		metrics:  metrics.New(),
		gatherer: prometheus.DefaultGatherer,
	}
	app.health = metrics.NewHealth(app.metrics)
	app.bus = events.NewBus(
		events.WithLogger(log.With("component", "events")),
		events.WithMetrics(events.NewMetrics()),
		events.WithDefaultRetry(events.RetryPolicy{
			MaxAttempts:     cfg.Events.MaxAttempts,
			InitialInterval: cfg.Events.InitialInterval,
			MaxInterval:     cfg.Events.MaxInterval,
		}),
	)

	st, err := openStores(ctx, cfg, log, app)
	if err != nil {
		return nil, err
	}

	rc, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var notifier notification.Notifier = notification.NewLogNotifier(log.With("component", "notifications"))
	var dedupe messaging.Deduplicator
	if rc != nil {
		app.closers = append(app.closers, rc.Close)
		app.health.Register("redis", rc.Health)
		st.statistics = statistics.NewRedis(rc, 0)
		notifier = notification.NewGuardedNotifier(notification.NewRedisNotifier(rc), notifier, circuit.New("notifications"), log)
		dedupe = redisplatform.NewDeduplicator(rc, "arcadia:inbound:", cfg.Redis.DedupeTTL)
	}

	app.players = playerservice.New(st.players, st.runner, playerservice.WithLogger(log))
	app.lobbies = lobbyservice.New(st.lobbies, st.instances, st.runner, app.bus,
		lobbyservice.WithLogger(log),
		lobbyservice.WithMetrics(lobbymetrics.New()),
		lobbyservice.WithMinPlayers(cfg.Lobby.MinPlayersToStart),
	)
	app.achievements = achievementservice.New(st.catalog, st.grants, st.statistics, st.runner, app.bus,
		achievementservice.WithLogger(log),
		achievementservice.WithMetrics(achievementmetrics.New()),
	)

	playerContext := adapters.NewPlayerContextAdapter(app.players, log)
	gameContext := adapters.NewGameContextAdapter(app.bus, app.achievements, log)
	app.friends = friendservice.New(st.friendships, playerContext, st.runner, app.bus, friendservice.WithLogger(log))
	app.chat = chatservice.New(chatstore.NewInMemory(), playerContext, st.runner, app.bus, chatservice.WithLogger(log))

	lobbyadapters.NewGameEndedListener(app.lobbies, log).Register(app.bus)
	achievementadapters.NewGameEndedListener(adapters.NewLobbyGameAdapter(app.lobbies), app.achievements, log).Register(app.bus)
	notification.NewListener(notifier, log).Register(app.bus)

	if cfg.KafkaEnabled() {
		if err := wireKafka(ctx, cfg, log, app, st, playerContext, gameContext, dedupe); err != nil {
			return nil, err
		}
	} else if len(cfg.Lobby.ExternalGames) > 0 {
		log.Warn("external games configured without kafka brokers; sessions will not be requested")
	}
	return app, nil
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger, app *application) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		return &stores{
			runner:      tx.NewMemoryRunner(app.bus),
			players:     playerstore.NewInMemory(),
			lobbies:     lobbystore.NewInMemory(),
			instances:   externalstore.NewInMemory(),
			friendships: friendship.NewInMemory(),
			catalog:     catalog.NewInMemory(),
			grants:      grants.NewInMemory(),
			statistics:  statistics.NewInMemory(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db.Close)
	app.health.Register("postgres", postgres.HealthCheck(db))
	if cfg.Postgres.Migrate {
		if err := migrate(db); err != nil {
			return nil, err
		}
	}

	box := outbox.New(db, cfg.InstanceID)
	return &stores{
		runner:      postgres.NewTxRunner(db, app.bus, postgres.WithOutbox(box), postgres.WithLogger(log)),
		outbox:      box,
		players:     playerstore.NewPostgres(db),
		lobbies:     lobbystore.NewPostgres(db),
		instances:   externalstore.NewPostgres(db),
		friendships: friendship.NewPostgres(db),
		catalog:     catalog.NewPostgres(db),
		grants:      grants.NewPostgres(db),
		statistics:  statistics.NewInMemory(),
	}, nil
}

func migrate(db *sql.DB) error {
	m, err := postgres.NewMigrator(db)
	if err != nil {
		return err
	}
	return m.Up()
}

func wireKafka(ctx context.Context, cfg config.Config, log *slog.Logger, app *application, st *stores, players *adapters.PlayerContextAdapter, games *adapters.GameContextAdapter, dedupe messaging.Deduplicator) error {
	producerClient, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, func() error { producerClient.Close(); return nil })
	app.health.Register("kafka", kafka.HealthCheck(producerClient))

	if cfg.Kafka.EnsureTopics {
		if err := kafka.EnsureTopics(ctx, producerClient,
			cfg.Kafka.AchievementsTopic,
			cfg.Kafka.GameEndedTopic,
			cfg.Kafka.DomainEventsTopic,
			cfg.Kafka.SessionStartTopic,
		); err != nil {
			return err
		}
	}
	producer := kafka.NewProducer(producerClient)

	externalGames, err := adapters.ParseExternalGames(cfg.Lobby.ExternalGames)
	if err != nil {
		return err
	}
	if len(externalGames) > 0 {
		requester := messaging.NewSessionRequester(producer, cfg.Kafka.SessionStartTopic)
		adapters.NewExternalGameLobbyHandler(externalGames, players, app.lobbies, requester, log).Register(app.bus)
	}

	router := kafka.NewRouter(log)
	messaging.NewInbound(games, players,
		messaging.WithLogger(log.With("component", "acl-messaging")),
		messaging.WithDeduplicator(dedupe),
	).Routes(router, cfg.Kafka.AchievementsTopic, cfg.Kafka.GameEndedTopic)
	if err := addConsumer(cfg, log, app, "inbound-consumer", cfg.Kafka.ConsumerGroup, router); err != nil {
		return err
	}

	if cfg.Kafka.ConsumeDomainEvents {
		// Every instance needs every envelope, so each one joins its own group.
		// Replays are marked so LocalOnly listeners skip them.
		inbound := outbox.NewInbound(domainCodec(), app.bus, cfg.InstanceID, log)
		domainRouter := kafka.NewRouter(log)
		domainRouter.Route(cfg.Kafka.DomainEventsTopic, kafka.HandlerFunc(func(ctx context.Context, msg *kafka.Message) error {
			return inbound.Handle(ctx, msg.Value)
		}))
		group := cfg.Kafka.ConsumerGroup + "." + cfg.InstanceID
		if err := addConsumer(cfg, log, app, "domain-event-consumer", group, domainRouter); err != nil {
			return err
		}
	}

	if st.outbox != nil {
		relay := outbox.NewRelay(st.outbox, producer, cfg.Kafka.DomainEventsTopic,
			outbox.WithInterval(cfg.Kafka.RelayInterval),
			outbox.WithLogger(log.With("component", "outbox-relay")),
			outbox.WithBreaker(circuit.New("outbox-relay")),
		)
		app.workers = append(app.workers, worker{name: "outbox-relay", run: relay.Run})
	}
	return nil
}

func addConsumer(cfg config.Config, log *slog.Logger, app *application, name, group string, router *kafka.Router) error {
	client, err := kafka.NewClient(cfg.Kafka, kafka.GroupOpts(group, router.Topics()...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	app.closers = append(app.closers, func() error { client.Close(); return nil })
	consumer := kafka.NewConsumer(client, log.With("component", name),
		kafka.WithRetryIntervals(cfg.Kafka.RetryInitial, cfg.Kafka.RetryMaxInterval),
	)
	app.workers = append(app.workers, worker{name: name, run: func(ctx context.Context) error {
		return consumer.Run(ctx, router)
	}})
	return nil
}

// domainCodec knows every event type that crosses the process boundary.
func domainCodec() *events.Codec {
	c := events.NewCodec()
	events.Register[shared.GameEndedDomainEvent](c)
	events.Register[lobbyevents.LobbyCreatedEvent](c)
	events.Register[lobbyevents.LobbyStartedEvent](c)
	events.Register[lobbyevents.PlayerJoinedLobbyEvent](c)
	events.Register[lobbyevents.PlayerLeftLobbyEvent](c)
	events.Register[lobbyevents.LobbyInviteEvent](c)
	events.Register[friendevents.FriendRequestEvent](c)
	events.Register[achievementevents.AchievementAcquiredEvent](c)
	events.Register[chatevents.MessageSentEvent](c)
	return c
}
