package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/errors"
)

const redisKeyPrefix = "conversation:"

// RedisStore persists TripRequests as JSON under conversation:<key> with a
// TTL, so abandoned forms age out instead of accumulating.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*TripRequest, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}

	var req TripRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, errors.NewStoreUnavailableError(fmt.Errorf("decode record for %s: %w", key, err))
	}
	return &req, nil
}

func (s *RedisStore) Put(ctx context.Context, req *TripRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("encode record for %s: %w", req.Key, err))
	}

	if err := s.client.Set(ctx, redisKeyPrefix+req.Key, string(data), s.ttl).Err(); err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}
