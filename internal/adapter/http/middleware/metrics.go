package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

// Metrics returns a middleware that records request counts and latency.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// idCollections are the path segments followed by a resource id.
var idCollections = map[string]bool{
	"accounts": true,
	"entries":  true,
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /api/v1/accounts/01ABC123/entries -> /api/v1/accounts/:id/entries
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/api/v1/") {
		return path
	}

	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if idCollections[segments[i-1]] && segments[i] != "" {
			segments[i] = ":id"
		}
	}

	return strings.Join(segments, "/")
}
