package middleware

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Recover is the outermost boundary: a panicking handler produces a
// generic 500 while the cause is logged server-side with the originating
// path. Clients never see internal error payloads.
func Recover(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("path", r.URL.Path).
						Str("method", r.Method).
						Msg("request handler panicked")
					writeError(w, http.StatusInternalServerError, CodeInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
