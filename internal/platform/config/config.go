package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// StoreBackend selects the persistence adapters.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
)

// Config is the process configuration, parsed from ARCADIA_* variables.
type Config struct {
	Server     Server
	Log        LogConfig
	Store      StoreBackend `env:"ARCADIA_STORE" envDefault:"memory"`
	InstanceID string       `env:"ARCADIA_INSTANCE_ID"`
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Events     EventsConfig
	Lobby      LobbyConfig
}

// Server captures the ops HTTP server configuration.
type Server struct {
	Addr            string        `env:"ARCADIA_OPS_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"ARCADIA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level  string `env:"ARCADIA_LOG_LEVEL" envDefault:"info"`
	Format string `env:"ARCADIA_LOG_FORMAT" envDefault:"json"`
}

type PostgresConfig struct {
	URL             string        `env:"ARCADIA_POSTGRES_URL"`
	MaxOpenConns    int           `env:"ARCADIA_POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"ARCADIA_POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"ARCADIA_POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	Migrate         bool          `env:"ARCADIA_POSTGRES_MIGRATE" envDefault:"true"`
}

// RedisConfig configures the optional Redis client. An empty URL disables
// Redis-backed adapters.
type RedisConfig struct {
	URL          string        `env:"ARCADIA_REDIS_URL"`
	PoolSize     int           `env:"ARCADIA_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"ARCADIA_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"ARCADIA_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"ARCADIA_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"ARCADIA_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	DedupeTTL    time.Duration `env:"ARCADIA_REDIS_DEDUPE_TTL" envDefault:"24h"`
}

// KafkaConfig configures the optional broker connection. No brokers means
// inbound consumers and the outbox relay are not started.
type KafkaConfig struct {
	Brokers             []string      `env:"ARCADIA_KAFKA_BROKERS" envSeparator:","`
	ConsumerGroup       string        `env:"ARCADIA_KAFKA_GROUP" envDefault:"arcadia"`
	AchievementsTopic   string        `env:"ARCADIA_KAFKA_ACHIEVEMENTS_TOPIC" envDefault:"game.achievements"`
	GameEndedTopic      string        `env:"ARCADIA_KAFKA_GAME_ENDED_TOPIC" envDefault:"game.ended"`
	DomainEventsTopic   string        `env:"ARCADIA_KAFKA_DOMAIN_EVENTS_TOPIC" envDefault:"platform.domain-events"`
	SessionStartTopic   string        `env:"ARCADIA_KAFKA_SESSION_START_TOPIC" envDefault:"game.session.start.requested"`
	EnsureTopics        bool          `env:"ARCADIA_KAFKA_ENSURE_TOPICS" envDefault:"false"`
	RelayInterval       time.Duration `env:"ARCADIA_OUTBOX_RELAY_INTERVAL" envDefault:"1s"`
	ConsumeDomainEvents bool          `env:"ARCADIA_KAFKA_CONSUME_DOMAIN_EVENTS" envDefault:"false"`
	RetryInitial        time.Duration `env:"ARCADIA_KAFKA_RETRY_INITIAL" envDefault:"500ms"`
	RetryMaxInterval    time.Duration `env:"ARCADIA_KAFKA_RETRY_MAX_INTERVAL" envDefault:"30s"`
}

// EventsConfig sets the bus default listener retry policy.
type EventsConfig struct {
	MaxAttempts     int           `env:"ARCADIA_EVENTS_MAX_ATTEMPTS" envDefault:"3"`
	InitialInterval time.Duration `env:"ARCADIA_EVENTS_RETRY_INITIAL" envDefault:"100ms"`
	MaxInterval     time.Duration `env:"ARCADIA_EVENTS_RETRY_MAX" envDefault:"2s"`
}

type LobbyConfig struct {
	MinPlayersToStart int `env:"ARCADIA_LOBBY_MIN_PLAYERS" envDefault:"2"`
	// ExternalGames maps a platform game id to the external game type that
	// hosts its sessions, e.g. "<uuid>=chess".
	ExternalGames map[string]string `env:"ARCADIA_EXTERNAL_GAMES" envSeparator:"," envKeyValSeparator:"="`
}

// FromEnv parses and validates the configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = defaultInstanceID()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("ARCADIA_POSTGRES_URL is required when ARCADIA_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported ARCADIA_STORE %q", c.Store))
	}
	if c.Lobby.MinPlayersToStart < 1 {
		errs = append(errs, errors.New("ARCADIA_LOBBY_MIN_PLAYERS must be at least 1"))
	}
	if c.Events.MaxAttempts < 1 {
		errs = append(errs, errors.New("ARCADIA_EVENTS_MAX_ATTEMPTS must be at least 1"))
	}
	for gameID := range c.Lobby.ExternalGames {
		if _, err := uuid.Parse(gameID); err != nil {
			errs = append(errs, fmt.Errorf("ARCADIA_EXTERNAL_GAMES: invalid game id %q", gameID))
		}
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether broker-backed components should run.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "arcadia"
	}
	return host + "-" + uuid.NewString()[:8]
}
