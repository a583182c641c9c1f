// Package token signs, verifies, and decodes the two credential kinds used
// by the engine: short-lived access credentials and long-lived refresh
// credentials. The two kinds are forced onto distinct signing methods and
// distinct secrets so that a leaked access secret can never forge refresh
// credentials.
//
// Verification failures are typed: [ErrExpired] for a structurally valid
// but out-of-lifetime credential, [ErrInvalid] for anything broken
// cryptographically or structurally. Callers branch on the distinction to
// shape their 401 responses.
package token
