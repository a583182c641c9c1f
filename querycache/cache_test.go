package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Veldhaus/credgate/kvcache"
	"github.com/Veldhaus/credgate/registry"
)

func newQueryCacheTest(t *testing.T) (*Cache, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := kvcache.NewRedisClient(rdb, "cg")
	reg := registry.NewStore(kv, time.Hour, zerolog.Nop())
	qc := New(kv, reg, 10*time.Minute, zerolog.Nop())
	return qc, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestKeyIsDeterministicAndParamSensitive(t *testing.T) {
	a := Key("product", "page=1", "sort=name")
	b := Key("product", "page=1", "sort=name")
	c := Key("product", "page=2", "sort=name")

	if a != b {
		t.Fatalf("identical params must derive identical keys")
	}
	if a == c {
		t.Fatalf("different params must derive different keys")
	}
}

func TestReadThroughRoundTrip(t *testing.T) {
	qc, _, done := newQueryCacheTest(t)
	defer done()
	ctx := context.Background()

	key := Key("product", "page=1")
	if _, hit := qc.Get(ctx, key); hit {
		t.Fatalf("expected cold cache miss")
	}

	qc.Set(ctx, "product", key, `[{"id":1}]`)

	payload, hit := qc.Get(ctx, key)
	if !hit {
		t.Fatalf("expected hit after set")
	}
	if payload != `[{"id":1}]` {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestInvalidateEntityDropsAllQueries(t *testing.T) {
	qc, _, done := newQueryCacheTest(t)
	defer done()
	ctx := context.Background()

	k1 := Key("product", "page=1")
	k2 := Key("product", "page=2")
	other := Key("user", "page=1")
	qc.Set(ctx, "product", k1, "p1")
	qc.Set(ctx, "product", k2, "p2")
	qc.Set(ctx, "user", other, "u1")

	if err := qc.InvalidateEntity(ctx, "product"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, hit := qc.Get(ctx, k1); hit {
		t.Fatalf("expected k1 invalidated")
	}
	if _, hit := qc.Get(ctx, k2); hit {
		t.Fatalf("expected k2 invalidated")
	}
	if _, hit := qc.Get(ctx, other); !hit {
		t.Fatalf("expected unrelated entity to survive")
	}
}

func TestBackendDownFailsOpen(t *testing.T) {
	qc, mr, done := newQueryCacheTest(t)
	defer done()
	ctx := context.Background()

	mr.Close()

	// Reads degrade to misses, writes are swallowed.
	if _, hit := qc.Get(ctx, Key("product", "page=1")); hit {
		t.Fatalf("expected miss with backend down")
	}
	qc.Set(ctx, "product", Key("product", "page=1"), "p1")
}
