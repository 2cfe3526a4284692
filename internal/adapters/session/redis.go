package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sqlapp:session:"

// RedisStore keeps sessions in Redis so they survive restarts and can be
// shared by multiple instances. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore for the given address.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Put stores a session under id with the store's TTL.
func (s *RedisStore) Put(ctx context.Context, id string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+id, raw, s.ttl).Err()
}

// Get returns the session for id if present and unexpired.
func (s *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, true, nil
}

// Delete removes the session for id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
