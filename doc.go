// Package credgate issues and validates short-lived access credentials and
// long-lived session credentials for an HTTP API, protects state-changing
// requests with a double-submit anti-forgery handshake, and keeps a
// secondary-index registry over an external key-value cache so that a
// principal's active sessions can be enumerated and capped, and any session
// or group of cached query results can be bulk-invalidated.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// credgate is the coordination core only. HTTP routing, relational storage
// for principals, request-body validation, and password hashing policy are
// external collaborators injected through interfaces ([UserProvider],
// [PasswordVerifier]) or consumed through the middleware package. The cache
// is best-effort, not linearizable: registries built on it are advisory
// bookkeeping, while cryptographic token validity and the relational store
// stay the source of truth.
//
// # Failure policy
//
// Cache unavailability degrades to safe behavior, never to silently wrong
// authorization: revocation checks fail closed (deny), read-through query
// caching fails open (miss).
package credgate
