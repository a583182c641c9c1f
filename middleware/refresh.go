package middleware

import (
	"context"
	"net/http"

	credgate "github.com/Veldhaus/credgate"
)

// RequireRefresh gates the refresh and logout endpoints on a live refresh
// credential, read from the x-refresh-token header or the refresh cookie.
// A revoked refresh token still verifies cryptographically but fails the
// liveness check and is reported as expired.
func RequireRefresh(engine *credgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := refreshToken(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, CodeRefreshInvalid)
				return
			}

			res, err := engine.VerifyRefresh(r.Context(), tok)
			if err != nil {
				status, code := classify(err, CodeRefreshExpired, CodeRefreshInvalid)
				writeError(w, status, code)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			ctx = context.WithValue(ctx, refreshTokenContextKey{}, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func refreshToken(r *http.Request) string {
	if tok := r.Header.Get(HeaderRefreshToken); tok != "" {
		return tok
	}
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		return c.Value
	}
	return ""
}
