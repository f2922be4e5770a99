// Package cache keeps resolved sessions in Redis so authenticated requests can
// skip the database.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/pkg/helpers"
)

const keyPrefix = "auth:session:"

func sessionKey(token string) string { return keyPrefix + token }

// SessionCache stores entity.AuthSession values as JSON keyed by session token.
type SessionCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSessionCache(rdb redis.Cmdable, ttl time.Duration) *SessionCache {
	return &SessionCache{rdb: rdb, ttl: ttl}
}

// Get reports false without error on a miss.
func (c *SessionCache) Get(ctx context.Context, token string) (*entity.AuthSession, bool, error) {
	var out entity.AuthSession
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, sessionKey(token), &out)
	if err != nil || !ok {
		return nil, false, err
	}
	return &out, true, nil
}

// Set caches s until the shorter of the cache TTL and the session's remaining lifetime.
func (c *SessionCache) Set(ctx context.Context, s *entity.AuthSession) error {
	ttl := c.ttl
	if remaining := time.Until(s.Session.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}
	return helpers.RedisSetJSON(ctx, c.rdb, sessionKey(s.Session.Token), s, ttl)
}

func (c *SessionCache) Delete(ctx context.Context, tokens ...string) error {
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		keys = append(keys, sessionKey(t))
	}
	return helpers.RedisDel(ctx, c.rdb, keys...)
}
