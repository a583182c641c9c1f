package kvcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClientTest(t *testing.T) (*RedisClient, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client := NewRedisClient(rdb, "cg")
	return client, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestGetMissIsTyped(t *testing.T) {
	client, _, done := newRedisClientTest(t)
	defer done()
	ctx := context.Background()

	_, err := client.Get(ctx, "absent")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("miss must not be classified as unavailable")
	}
}

func TestSetGetRoundTripWithPrefix(t *testing.T) {
	client, mr, done := newRedisClientTest(t)
	defer done()
	ctx := context.Background()

	if err := client.Set(ctx, "k1", "v1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := client.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}

	// The raw key must carry the namespace prefix.
	if !mr.Exists("cg:k1") {
		t.Fatalf("expected namespaced key cg:k1 in redis")
	}
}

func TestTouchExtendsTTLAndMissesOnAbsent(t *testing.T) {
	client, mr, done := newRedisClientTest(t)
	defer done()
	ctx := context.Background()

	if err := client.Touch(ctx, "absent", time.Minute); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss on absent touch, got %v", err)
	}

	if err := client.Set(ctx, "k1", "v1", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Touch(ctx, "k1", time.Hour); err != nil {
		t.Fatalf("touch: %v", err)
	}

	ttl := mr.TTL("cg:k1")
	if ttl < 30*time.Minute {
		t.Fatalf("expected extended ttl, got %v", ttl)
	}
}

func TestDelIsIdempotent(t *testing.T) {
	client, _, done := newRedisClientTest(t)
	defer done()
	ctx := context.Background()

	if err := client.Set(ctx, "k1", "v1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Del(ctx, "k1"); err != nil {
		t.Fatalf("first del: %v", err)
	}
	if err := client.Del(ctx, "k1"); err != nil {
		t.Fatalf("second del: %v", err)
	}
	if err := client.Del(ctx); err != nil {
		t.Fatalf("empty del: %v", err)
	}
}

func TestSetIfEqualSwapsOnlyOnMatch(t *testing.T) {
	client, _, done := newRedisClientTest(t)
	defer done()
	ctx := context.Background()

	// Absent key: empty old means "must be absent".
	ok, err := client.SetIfEqual(ctx, "k1", "", "v1", time.Minute)
	if err != nil {
		t.Fatalf("cas on absent: %v", err)
	}
	if !ok {
		t.Fatalf("expected cas to apply on absent key")
	}

	ok, err = client.SetIfEqual(ctx, "k1", "stale", "v2", time.Minute)
	if err != nil {
		t.Fatalf("cas with stale old: %v", err)
	}
	if ok {
		t.Fatalf("cas must not apply when old value differs")
	}

	ok, err = client.SetIfEqual(ctx, "k1", "v1", "v2", time.Minute)
	if err != nil {
		t.Fatalf("cas with current old: %v", err)
	}
	if !ok {
		t.Fatalf("expected cas to apply when old matches")
	}

	got, err := client.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v2" {
		t.Fatalf("expected v2 after swap, got %q", got)
	}
}

func TestBackendDownIsUnavailable(t *testing.T) {
	client, mr, done := newRedisClientTest(t)
	defer done()
	ctx := context.Background()

	mr.Close()

	_, err := client.Get(ctx, "k1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if errors.Is(err, ErrMiss) {
		t.Fatalf("backend failure must not be classified as miss")
	}
}
