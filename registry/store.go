package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Veldhaus/credgate/kvcache"
)

// casAttempts bounds optimistic retries before falling back to a plain
// overwrite. Every failed swap means another writer committed, so the
// bound is only reachable under sustained contention on one group.
const casAttempts = 16

// Store maintains registry groups in the cache. A Store is immutable after
// construction and safe for concurrent use; concurrency guarantees are
// those of the underlying cache client.
type Store struct {
	cache kvcache.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewStore creates a registry [Store]. ttl applies to every group key
// written by Register and Erase.
func NewStore(cache kvcache.Client, ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{cache: cache, ttl: ttl, log: log}
}

// List returns the members of a group. A missing group (or an empty-array
// entry) reads as an empty slice. Backend unavailability is returned so
// authorization-critical callers can fail closed; read-acceleration callers
// should treat it as a miss.
func (s *Store) List(ctx context.Context, group string) ([]string, error) {
	members, _, err := s.load(ctx, group)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Register appends member to the group unless it is already present. The
// write is a compare-and-swap when the cache supports it, retried a bounded
// number of times.
//
// ATOMICITY NOTE: on cache clients without compare-and-swap support, and
// after CAS retries are exhausted under heavy contention, Register degrades
// to a plain overwrite. Two concurrent registrations on the same group can
// then lose one append. The registry contract is eventual membership, not
// linearizability; the lost member is re-registered by the caller's next
// write or ages out with the group TTL.
func (s *Store) Register(ctx context.Context, group, member string) error {
	swapper, canSwap := s.cache.(kvcache.Swapper)

	for attempt := 0; attempt < casAttempts; attempt++ {
		members, raw, err := s.load(ctx, group)
		if err != nil {
			return err
		}

		if contains(members, member) {
			return nil
		}

		next, err := encode(append(members, member))
		if err != nil {
			return err
		}

		if !canSwap {
			return s.cache.Set(ctx, group, next, s.ttl)
		}

		applied, err := swapper.SetIfEqual(ctx, group, raw, next, s.ttl)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}

	// Contention exhausted the CAS budget; last writer wins.
	members, _, err := s.load(ctx, group)
	if err != nil {
		return err
	}
	if contains(members, member) {
		return nil
	}
	next, err := encode(append(members, member))
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, group, next, s.ttl)
}

// Erase removes member from the group. An absent member is a no-op. The
// group key may be left holding an empty array, which List treats the same
// as an absent group.
func (s *Store) Erase(ctx context.Context, group, member string) error {
	swapper, canSwap := s.cache.(kvcache.Swapper)

	for attempt := 0; attempt < casAttempts; attempt++ {
		members, raw, err := s.load(ctx, group)
		if err != nil {
			return err
		}
		if raw == "" || !contains(members, member) {
			return nil
		}

		next, err := encode(remove(members, member))
		if err != nil {
			return err
		}

		if !canSwap {
			return s.cache.Set(ctx, group, next, s.ttl)
		}

		applied, err := swapper.SetIfEqual(ctx, group, raw, next, s.ttl)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}

	members, _, err := s.load(ctx, group)
	if err != nil {
		return err
	}
	if !contains(members, member) {
		return nil
	}
	next, err := encode(remove(members, member))
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, group, next, s.ttl)
}

// Invalidate deletes every member's cache entry and then the group key
// itself. Member deletions are best-effort: a failed delete is logged and
// skipped, since the member entry still ages out with its own TTL. Members
// registered while the invalidation is running may survive it; see the
// package documentation.
func (s *Store) Invalidate(ctx context.Context, group string) error {
	members, _, err := s.load(ctx, group)
	if err != nil {
		return err
	}

	for _, member := range members {
		if err := s.cache.Del(ctx, member); err != nil {
			s.log.Warn().
				Err(err).
				Str("group", group).
				Msg("best-effort member delete failed during group invalidation")
		}
	}

	return s.cache.Del(ctx, group)
}

// load reads a group, returning its members plus the raw blob used as the
// CAS baseline. A miss yields (nil, "", nil).
func (s *Store) load(ctx context.Context, group string) ([]string, string, error) {
	raw, err := s.cache.Get(ctx, group)
	if err != nil {
		if kvcache.IsMiss(err) {
			return nil, "", nil
		}
		return nil, "", err
	}

	var members []string
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		// A corrupt blob reads as empty; the next Register rewrites it.
		s.log.Warn().Str("group", group).Msg("corrupt registry group blob, treating as empty")
		return nil, "", nil
	}
	return members, raw, nil
}

func encode(members []string) (string, error) {
	data, err := json.Marshal(members)
	if err != nil {
		return "", fmt.Errorf("encode registry group: %w", err)
	}
	return string(data), nil
}

func contains(members []string, member string) bool {
	for _, m := range members {
		if m == member {
			return true
		}
	}
	return false
}

func remove(members []string, member string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != member {
			out = append(out, m)
		}
	}
	return out
}
