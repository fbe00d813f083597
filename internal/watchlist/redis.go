package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"SignalSentinel/internal/model"
)

const DefaultRedisKey = "watchlist"

// redisKV is the subset of the redis client the store needs.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps the watchlist as a JSON document under a single key.
type RedisStore struct {
	kv  redisKV
	key string
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(rawURL, key string) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return newRedisStore(client, key), client, nil
}

func newRedisStore(kv redisKV, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{kv: kv, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]model.WatchlistItem, error) {
	data, err := s.kv.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: redis get %s: %v", ErrPersistence, s.key, err)
	}
	items := []model.WatchlistItem{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: parse redis %s: %v", ErrPersistence, s.key, err)
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, items []model.WatchlistItem) error {
	if items == nil {
		items = []model.WatchlistItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrPersistence, s.key, err)
	}
	return nil
}
