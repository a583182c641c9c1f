package kvcache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get and Touch when the key does not exist.
// A miss is an expected outcome, never a backend failure.
var ErrMiss = errors.New("cache miss")

// ErrUnavailable is returned when the cache backend cannot be reached or
// answers with an internal error. It always wraps the underlying cause.
var ErrUnavailable = errors.New("cache unavailable")

// Client is the minimal cache surface the engine builds on. Implementations
// must map "key not found" to [ErrMiss] and every transport or backend
// failure to an error wrapping [ErrUnavailable].
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Touch(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Swapper is an optional extension implemented by backends that support an
// atomic conditional write. SetIfEqual replaces the value stored under key
// only when the current value equals old, returning whether the swap was
// applied. An empty old string means "key must be absent".
type Swapper interface {
	SetIfEqual(ctx context.Context, key, old, new string, ttl time.Duration) (bool, error)
}

// IsMiss reports whether err represents a plain cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
