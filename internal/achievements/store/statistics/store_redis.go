package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
)

const keyPrefix = "achievements:stats:"

// RedisStore keeps one JSON document per (player, game). Documents expire
// after ttl of inactivity when ttl is positive.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(player domain.PlayerID, game domain.GameID) string {
	return keyPrefix + game.String() + ":" + player.String()
}

func (s *RedisStore) Load(ctx context.Context, player domain.PlayerID, game domain.GameID) (*models.PlayerStatistics, error) {
	raw, err := s.client.Get(ctx, key(player, game)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewPlayerStatistics(player, game), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	var st models.PlayerStatistics
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	if st.UniqueOpponents == nil {
		st.UniqueOpponents = []domain.PlayerID{}
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, st *models.PlayerStatistics) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	if err := s.client.Set(ctx, key(st.PlayerID, st.GameID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}
