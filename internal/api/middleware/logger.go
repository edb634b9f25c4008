package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/edvin/multiregion/internal/replay"
)

// RequestLogger stores a request-scoped logger in the context and logs each
// request when it completes. Requests replayed by the edge proxy carry a
// fly-replay-src header; its origin is logged so both legs can be
// correlated.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lctx := logger.With().Str("request_id", middleware.GetReqID(r.Context()))
			if v := r.Header.Get(replay.SourceHeaderName); v != "" {
				if src, err := replay.ParseSource(v); err == nil {
					lctx = lctx.Str("replayed_from", src.Region)
					if !src.Timestamp.IsZero() {
						lctx = lctx.Dur("replay_delay", start.Sub(src.Timestamp))
					}
				} else {
					lctx = lctx.Str("replay_src", v)
				}
			}
			reqLogger := lctx.Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
