package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	credgate "github.com/Veldhaus/credgate"
)

// Stable error codes returned to clients. Hosts branch on these, never on
// human-readable text.
const (
	CodeAccessExpired   = "ACCESS_TOKEN_EXPIRED"
	CodeAccessInvalid   = "ACCESS_TOKEN_INVALID"
	CodeRefreshExpired  = "REFRESH_TOKEN_EXPIRED"
	CodeRefreshInvalid  = "REFRESH_TOKEN_INVALID"
	CodeCSRFInvalid     = "CSRF_INVALID"
	CodeCSRFExpired     = "CSRF_EXPIRED"
	CodeAuthUnavailable = "AUTH_UNAVAILABLE"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL_ERROR"
)

// Header and cookie names of the credential surface.
const (
	HeaderRefreshToken = "x-refresh-token"
	HeaderCSRFToken    = "x-csrf-token"
	RefreshCookieName  = "refresh_token"
	CSRFCookieName     = "csrf_hash"
)

type authResultContextKey struct{}
type refreshTokenContextKey struct{}

// AuthResultFromContext returns the authenticated result stored by
// RequireAccess or RequireRefresh.
func AuthResultFromContext(ctx context.Context) (*credgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*credgate.AuthResult)
	return res, ok
}

// RefreshTokenFromContext returns the raw refresh credential stored by
// RequireRefresh, for handlers that need it as a cache key.
func RefreshTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(refreshTokenContextKey{}).(string)
	return tok, ok
}

// RequireAccess gates a route on a live access credential: bearer token,
// signature, lifetime, and cache liveness. Cache unavailability denies.
func RequireAccess(engine *credgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeAccessInvalid)
				return
			}

			res, err := engine.VerifyAccess(r.Context(), tok)
			if err != nil {
				status, code := classify(err, CodeAccessExpired, CodeAccessInvalid)
				writeError(w, status, code)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority gates a route on a live access credential whose role
// claim equals role.
func RequireAuthority(engine *credgate.Engine, role string) func(http.Handler) http.Handler {
	access := RequireAccess(engine)
	return func(next http.Handler) http.Handler {
		return access(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok || res.Identity.Role != role {
				writeError(w, http.StatusForbidden, CodeForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

// classify maps the engine's typed errors onto an HTTP status and code.
// expiredCode covers both natural expiry and cache-side revocation, which
// are deliberately indistinguishable to clients.
func classify(err error, expiredCode, invalidCode string) (int, string) {
	switch {
	case errors.Is(err, credgate.ErrCredentialExpired):
		return http.StatusUnauthorized, expiredCode
	case errors.Is(err, credgate.ErrCacheUnavailable):
		return http.StatusUnauthorized, CodeAuthUnavailable
	default:
		return http.StatusUnauthorized, invalidCode
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
