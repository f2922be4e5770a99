package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/piousdev/roel-agency/internal/domain/entity"
)

func TestSessionKey(t *testing.T) {
	if got := sessionKey("abc"); got != "auth:session:abc" {
		t.Errorf("sessionKey = %q", got)
	}
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSessionCache_RoundTrip(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	c := NewSessionCache(rdb, time.Minute)

	token := uuid.NewString()
	in := &entity.AuthSession{
		Session: entity.Session{ID: "s1", UserID: "u1", Token: token, ExpiresAt: time.Now().Add(time.Hour).UTC()},
		User:    entity.User{ID: "u1", Name: "Ann", Email: "ann@example.com"},
	}
	if err := c.Set(ctx, in); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, token)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got.User.Email != "ann@example.com" || got.Session.ID != "s1" {
		t.Errorf("unexpected cached value: %+v", got)
	}
	if ttl := rdb.TTL(ctx, sessionKey(token)).Val(); ttl > time.Minute {
		t.Errorf("ttl = %v, want <= 1m", ttl)
	}

	if err := c.Delete(ctx, token); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, token); ok {
		t.Error("expected miss after delete")
	}
}

func TestSessionCache_SkipsExpiredSession(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	c := NewSessionCache(rdb, time.Minute)

	token := uuid.NewString()
	err := c.Set(ctx, &entity.AuthSession{Session: entity.Session{Token: token, ExpiresAt: time.Now().Add(-time.Second)}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, token); ok {
		t.Error("expired session should not be cached")
	}
}
