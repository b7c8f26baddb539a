package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{
			name:       "normalizes account path",
			method:     http.MethodGet,
			path:       "/api/v1/accounts/ABC123",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodPost,
			path:       "/health",
			statusCode: http.StatusCreated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegisterer(prometheus.NewRegistry())

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			Metrics(m)(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			normalized := normalizePath(tc.path)
			counter := m.HTTPRequests.WithLabelValues(tc.method, normalized, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected request counter to be 1, got %v", got)
			}

			if got := testutil.CollectAndCount(m.HTTPDuration); got != 1 {
				t.Fatalf("expected one duration series, got %d", got)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/accounts":                             "/api/v1/accounts",
		"/api/v1/accounts/01HZ":                        "/api/v1/accounts/:id",
		"/api/v1/accounts/01HZ/entries":                "/api/v1/accounts/:id/entries",
		"/api/v1/accounts/01HZ/balance/history":        "/api/v1/accounts/:id/balance/history",
		"/api/v1/entries/01HY":                         "/api/v1/entries/:id",
		"/api/v1/balance":                              "/api/v1/balance",
		"/health":                                      "/health",
		"/api/v1/accounts/01HZ/entries/ignored-suffix": "/api/v1/accounts/:id/entries/:id",
	}

	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
