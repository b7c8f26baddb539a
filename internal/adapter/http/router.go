package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/handler"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/middleware"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	EntryHandler          *handler.EntryHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	// Authenticator attaches the caller to every /api/v1 request. It is
	// required.
	Authenticator *middleware.Authenticator

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Metrics *metrics.Metrics
	// MetricsHandler serves /metrics. Defaults to the default registry.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Authenticator.Wrap)

		// Idempotency keys are scoped per owner, so this runs after auth
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Get("/balance", cfg.AccountHandler.TotalBalance)
		r.Get("/reconciliation", cfg.ReconciliationHandler.Report)

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/balance/history", cfg.EntryHandler.BalanceAt)
			r.Get("/{id}/reconciliation", cfg.ReconciliationHandler.Reconcile)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireWrite)
				r.Post("/", cfg.AccountHandler.Create)
				r.Delete("/{id}", cfg.AccountHandler.Close)
				r.Post("/{id}/credits", cfg.EntryHandler.Credit)
				r.Post("/{id}/debits", cfg.EntryHandler.Debit)
				r.Post("/{id}/rebuild", cfg.ReconciliationHandler.Rebuild)
			})
		})

		// Entries
		r.Route("/entries", func(r chi.Router) {
			r.Get("/{id}", cfg.EntryHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireWrite)
				r.Patch("/{id}", cfg.EntryHandler.Edit)
				r.Delete("/{id}", cfg.EntryHandler.Delete)
			})
		})
	})

	return r
}
