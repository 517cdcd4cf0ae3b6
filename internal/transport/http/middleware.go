package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/joshdurbin/url-mapper/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture response details
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.body != nil {
		sr.body.Write(b)
	}
	return sr.ResponseWriter.Write(b)
}

// LoggingMiddleware logs each request and its outcome. In verbose mode request
// bodies and error response bodies are logged too.
func LoggingMiddleware(logger zerolog.Logger, verbose bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			if verbose && (r.Method == http.MethodPost || r.Method == http.MethodPut) && r.Body != nil {
				bodyBytes, err := io.ReadAll(r.Body)
				if err != nil {
					logger.Warn().Err(err).Msg("failed to read request body")
				} else {
					r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
					if len(bodyBytes) > 0 {
						logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Bytes("body", bodyBytes).Msg("request body")
					}
				}
			}

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			if verbose {
				rec.body = &bytes.Buffer{}
			}

			next.ServeHTTP(rec, r)

			event := logger.Info()
			if rec.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			} else if !verbose {
				event = logger.Debug()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", rec.statusCode).
				Dur("duration", time.Since(start)).
				Msg("request handled")

			if rec.body != nil && rec.body.Len() > 0 && rec.statusCode >= http.StatusBadRequest {
				logger.Debug().Int("status", rec.statusCode).Str("body", rec.body.String()).Msg("error response")
			}
		})
	}
}

// MetricsMiddleware records request counts and latency keyed by route template
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.RecordHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

// recoveryLogger adapts zerolog to gorilla/handlers' recovery logger
type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}
