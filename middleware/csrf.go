package middleware

import (
	"errors"
	"net/http"

	credgate "github.com/Veldhaus/credgate"
	"github.com/Veldhaus/credgate/csrf"
)

// RequireAnonymousCSRF gates pre-login state-changing routes (login,
// register) on a valid anonymous anti-forgery pair.
func RequireAnonymousCSRF(handshake *csrf.Handshake) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := handshake.CheckAnonymous(r.Context(), r.Header.Get(HeaderCSRFToken), csrfCookie(r))
			if err != nil {
				writeCSRFError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthorizedCSRF gates post-login state-changing routes on a
// promoted anti-forgery pair bound to the caller's refresh credential.
func RequireAuthorizedCSRF(handshake *csrf.Handshake) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := handshake.CheckAuthorized(
				r.Context(),
				refreshToken(r),
				r.Header.Get(HeaderCSRFToken),
				csrfCookie(r),
			)
			if err != nil {
				writeCSRFError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func csrfCookie(r *http.Request) string {
	if c, err := r.Cookie(CSRFCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Both CSRF failure modes reach the client as 403; only the code differs.
func writeCSRFError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, credgate.ErrCsrfExpired):
		writeError(w, http.StatusForbidden, CodeCSRFExpired)
	case errors.Is(err, credgate.ErrCacheUnavailable):
		writeError(w, http.StatusForbidden, CodeAuthUnavailable)
	default:
		writeError(w, http.StatusForbidden, CodeCSRFInvalid)
	}
}
