package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestLogging emits one line per request. The route field carries the
// matched mux pattern so log queries line up with the metric labels; the raw
// path is kept alongside for requests that never matched a route.
func RequestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			status := rw.status
			if status == 0 {
				status = http.StatusOK
			}

			entry := logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start))
			if requestID := GetRequestID(r.Context()); requestID != "" {
				entry = entry.Str("request_id", requestID)
			}
			entry.Msg("request")
		})
	}
}
