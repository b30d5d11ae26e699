package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ellp/mockapi/internal/auth"
)

const keyPrefix = "mock:"

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisStore compartilha as sessões entre instâncias do mock via Redis.
type RedisStore struct {
	client redisCommander
}

// NewRedisStore cria store sobre um cliente Redis.
func NewRedisStore(client redisCommander) *RedisStore {
	return &RedisStore{client: client}
}

// Key monta chave única por tipo e token.
func Key(kind auth.TokenKind, token string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, kind, token)
}

func (s *RedisStore) Save(ctx context.Context, kind auth.TokenKind, token, userID string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, Key(kind, token), userID, ttl).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, kind auth.TokenKind, token string) (string, error) {
	userID, err := s.client.Get(ctx, Key(kind, token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

func (s *RedisStore) Delete(ctx context.Context, kind auth.TokenKind, token string) error {
	return s.client.Del(ctx, Key(kind, token)).Err()
}

// Flush remove todas as chaves do mock, em lotes do SCAN.
func (s *RedisStore) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
