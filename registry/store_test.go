package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Veldhaus/credgate/kvcache"
)

func newRegistryTest(t *testing.T) (*Store, kvcache.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := kvcache.NewRedisClient(rdb, "cg")
	store := NewStore(cache, time.Hour, zerolog.Nop())
	return store, cache, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestListMissingGroupIsEmpty(t *testing.T) {
	store, _, done := newRegistryTest(t)
	defer done()

	members, err := store.List(context.Background(), "g")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty group, got %v", members)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	store, _, done := newRegistryTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Register(ctx, "g", "a"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := store.Register(ctx, "g", "a"); err != nil {
		t.Fatalf("second register: %v", err)
	}

	members, err := store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 1 || members[0] != "a" {
		t.Fatalf(`expected ["a"], got %v`, members)
	}
}

func TestRegisterPreservesOrder(t *testing.T) {
	store, _, done := newRegistryTest(t)
	defer done()
	ctx := context.Background()

	for _, m := range []string{"a", "b", "c"} {
		if err := store.Register(ctx, "g", m); err != nil {
			t.Fatalf("register %s: %v", m, err)
		}
	}

	members, err := store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(members) != len(want) {
		t.Fatalf("expected %v, got %v", want, members)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, members)
		}
	}
}

func TestEraseMemberAndAbsentNoOp(t *testing.T) {
	store, _, done := newRegistryTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Erase(ctx, "g", "nope"); err != nil {
		t.Fatalf("erase on absent group: %v", err)
	}

	if err := store.Register(ctx, "g", "a"); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := store.Register(ctx, "g", "b"); err != nil {
		t.Fatalf("register b: %v", err)
	}
	if err := store.Erase(ctx, "g", "a"); err != nil {
		t.Fatalf("erase a: %v", err)
	}

	members, err := store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf(`expected ["b"], got %v`, members)
	}

	// Draining the group leaves an empty-array entry that reads as absent.
	if err := store.Erase(ctx, "g", "b"); err != nil {
		t.Fatalf("erase b: %v", err)
	}
	members, err = store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list after drain: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected drained group to read empty, got %v", members)
	}
}

func TestInvalidateDeletesMembersAndGroup(t *testing.T) {
	store, cache, done := newRegistryTest(t)
	defer done()
	ctx := context.Background()

	for _, m := range []string{"a", "b"} {
		if err := cache.Set(ctx, m, "payload", time.Hour); err != nil {
			t.Fatalf("seed member %s: %v", m, err)
		}
		if err := store.Register(ctx, "g", m); err != nil {
			t.Fatalf("register %s: %v", m, err)
		}
	}

	if err := store.Invalidate(ctx, "g"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	for _, m := range []string{"a", "b"} {
		if _, err := cache.Get(ctx, m); !kvcache.IsMiss(err) {
			t.Fatalf("expected member %s to be deleted, got %v", m, err)
		}
	}

	members, err := store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list after invalidate: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty group after invalidate, got %v", members)
	}
}

func TestCorruptGroupBlobReadsEmptyAndHeals(t *testing.T) {
	store, cache, done := newRegistryTest(t)
	defer done()
	ctx := context.Background()

	if err := cache.Set(ctx, "g", "{not json", time.Hour); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	members, err := store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list corrupt group: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected corrupt group to read empty, got %v", members)
	}

	if err := store.Register(ctx, "g", "a"); err != nil {
		t.Fatalf("register over corrupt blob: %v", err)
	}
	members, err = store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list after heal: %v", err)
	}
	if len(members) != 1 || members[0] != "a" {
		t.Fatalf(`expected ["a"] after heal, got %v`, members)
	}
}

// Concurrent registrations of distinct members must all be eventually
// present: the CAS path on the Redis client closes the read-modify-write
// race the plain contract would allow.
func TestConcurrentRegisterEventualMembership(t *testing.T) {
	store, _, done := newRegistryTest(t)
	defer done()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Register(ctx, "g", fmt.Sprintf("m-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent register: %v", err)
	}

	members, err := store.List(ctx, "g")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m] {
			t.Fatalf("duplicate member %s after concurrent registration", m)
		}
		seen[m] = true
	}
	for i := 0; i < n; i++ {
		if !seen[fmt.Sprintf("m-%d", i)] {
			t.Fatalf("member m-%d lost under concurrent registration, got %v", i, members)
		}
	}
}
