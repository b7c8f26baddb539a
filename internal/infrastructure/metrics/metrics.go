package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Engine metrics
	EntriesPosted     *prometheus.CounterVec
	EntriesEdited     prometheus.Counter
	EntriesDeleted    prometheus.Counter
	Replays           *prometheus.CounterVec
	ReplayLength      prometheus.Histogram
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Concurrency guard metrics
	LockWait      prometheus.Histogram
	LockConflicts prometheus.Counter

	// Account metrics
	AccountsOpened prometheus.Counter
	AccountsClosed prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	PublishErrors   prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Engine metrics
		EntriesPosted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_entries_posted_total",
				Help: "Total number of entries posted by direction",
			},
			[]string{"direction"},
		),
		EntriesEdited: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_entries_edited_total",
			Help: "Total number of entries edited",
		}),
		EntriesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_entries_deleted_total",
			Help: "Total number of entries deleted",
		}),
		Replays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_replays_total",
				Help: "Total number of balance replays by trigger",
			},
			[]string{"operation"},
		),
		ReplayLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_replay_entries",
			Help:    "Number of entries walked per replay",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of engine operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "path"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operation_errors_total",
				Help: "Total number of rejected engine operations by type",
			},
			[]string{"operation", "error_type"},
		),

		// Concurrency guard metrics
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_lock_wait_seconds",
			Help:    "Time spent waiting for a per-account lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		LockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_lock_conflicts_total",
			Help: "Total number of lock acquisitions that timed out",
		}),

		// Account metrics
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_closed_total",
			Help: "Total number of accounts closed",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_event_publish_errors_total",
			Help: "Total outbox publish failures",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}

