// Package csrf implements the double-submit anti-forgery handshake. The
// server caches a random secret under a random token, hands the client the
// token plus a cookie holding sha256(secret||token), and later requires the
// header-supplied token and the cookie hash to agree with the cached
// secret before a state-changing request is allowed through.
//
// An anonymous grant is keyed by its own token with a short TTL. At login
// the grant is promoted: the cache entry moves under the freshly issued
// refresh credential with the refresh lifetime, so the same cookie remains
// valid across the anonymous-to-authorized transition.
package csrf
