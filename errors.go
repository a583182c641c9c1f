package credgate

import (
	"errors"

	"github.com/Veldhaus/credgate/csrf"
	"github.com/Veldhaus/credgate/kvcache"
	"github.com/Veldhaus/credgate/token"
)

// The error taxonomy is a closed set of sentinels. Guards and hosts branch
// with errors.Is on these values, never on message content. The cache and
// credential sentinels are shared with their defining subpackages so a
// wrapped low-level error satisfies the engine-level check.
var (
	// ErrSignatureInvalid marks a credential that fails structural or
	// cryptographic verification.
	ErrSignatureInvalid = token.ErrInvalid
	// ErrCredentialExpired marks a credential whose lifetime elapsed, or
	// whose cache entry was revoked: a revoked session is indistinguishable
	// from an expired one at the guard boundary.
	ErrCredentialExpired = token.ErrExpired
	// ErrCsrfInvalid marks a broken or mismatched anti-forgery pair.
	ErrCsrfInvalid = csrf.ErrInvalid
	// ErrCsrfExpired marks an anti-forgery pair whose cached secret is gone.
	ErrCsrfExpired = csrf.ErrExpired
	// ErrCacheUnavailable marks a cache backend failure. Revocation-check
	// paths treat it as a deny; read-acceleration paths treat it as a miss.
	ErrCacheUnavailable = kvcache.ErrUnavailable
	// ErrCacheMiss is the internal not-found signal. It is never returned
	// to hosts directly; the engine translates it into one of the above.
	ErrCacheMiss = kvcache.ErrMiss

	// ErrTooManySessions is returned by login when the principal already
	// holds the maximum number of concurrent sessions.
	ErrTooManySessions = errors.New("too many concurrent sessions")
	// ErrInvalidCredentials is returned by login on an unknown identifier
	// or a failed password check, deliberately without distinguishing.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is the user provider's not-found contract value.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginRateLimited is returned by login when the per-identifier
	// attempt budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
