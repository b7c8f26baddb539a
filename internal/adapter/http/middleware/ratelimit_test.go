package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

func TestRateLimiter_Limit(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	rl := NewRateLimiter(0.001, 2, m)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("10.0.0.1")))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "other clients keep their own budget")
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getIP(req))
}

func TestRateLimiter_CleanupLimiters(t *testing.T) {
	rl := NewRateLimiter(10, 10, nil)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	rl.getLimiter("old")
	current = current.Add(10 * time.Minute)
	rl.getLimiter("fresh")

	rl.CleanupLimiters(5 * time.Minute)

	_, oldKept := rl.visitors["old"]
	_, freshKept := rl.visitors["fresh"]
	assert.False(t, oldKept)
	assert.True(t, freshKept)
}
