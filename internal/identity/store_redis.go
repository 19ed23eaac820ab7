package identity

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"hilo/pkg/domain"
)

const sessionKeyPrefix = "session:active:"

// RedisSessionMirror reflects session-active flags into Redis so other
// instances can consult them without reaching the primary store.
type RedisSessionMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionMirror(client *redis.Client, ttl time.Duration) *RedisSessionMirror {
	return &RedisSessionMirror{client: client, ttl: ttl}
}

func (m *RedisSessionMirror) SetActive(ctx context.Context, account domain.AccountID, active bool) error {
	key := sessionKeyPrefix + account.String()
	if !active {
		return m.client.Del(ctx, key).Err()
	}
	return m.client.Set(ctx, key, "1", m.ttl).Err()
}

// IsActive reports whether the account has an active session flag in Redis.
func (m *RedisSessionMirror) IsActive(ctx context.Context, account domain.AccountID) (bool, error) {
	_, err := m.client.Get(ctx, sessionKeyPrefix+account.String()).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
