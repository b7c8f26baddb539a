package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/config"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Setenv("STORAGE_DRIVER", config.StorageMemory)
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()

	a, err := buildApp(context.Background(), cfg, zerolog.Nop(), metrics.NewWithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func openAccount(t *testing.T, h http.Handler) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(`{"name":"Main","kind":"current","initial_balance":"10"}`))
	req.Header.Set("X-Owner-ID", "owner-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestBuildAppMemory(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory":"ok"`)

	assert.Equal(t, http.StatusCreated, openAccount(t, a.handler))
	assert.NotNil(t, a.rateLimiter)
}

func TestBuildAppSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = config.StorageSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "ledger.db")

	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusCreated, openAccount(t, a.handler))

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Contains(t, rec.Body.String(), `"sqlite":"ok"`)
}

func TestBuildAppWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisEnabled = true
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.LockBackend = config.LockRedis
	cfg.OutboxInterval = 10 * time.Millisecond

	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusCreated, openAccount(t, a.handler))

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(cfg.EventsChannel)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.publisher.Start(ctx) }()

	select {
	case msg := <-sub.Messages():
		assert.Contains(t, msg.Message, "account.opened")
	case <-time.After(2 * time.Second):
		t.Fatal("expected the account.opened event on the channel")
	}

	cancel()
	<-done

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

func TestBuildAppRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.RedisEnabled = true
	cfg.RedisURL = "redis://" + addr

	_, err := buildApp(context.Background(), cfg, zerolog.Nop(), metrics.NewWithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}
