package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// accessLog records one line per request and feeds the request metrics.
// Server errors log at error level; static assets only at debug.
func accessLog(logger *zerolog.Logger, m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rec, r)
			took := time.Since(start)

			status := rec.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if m != nil {
				m.observeRequest(r.Method, route, strconv.Itoa(status), took)
			}

			ev := logger.Info()
			switch {
			case status >= 500:
				ev = logger.Error()
			case route == "/static/*":
				ev = logger.Debug()
			}
			ev.Str("req_id", middleware.GetReqID(r.Context())).
				Str("remote", clientIP(r)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", rec.BytesWritten()).
				Dur("duration", took).
				Msg("http")
		})
	}
}
