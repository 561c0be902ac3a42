// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "ledger",
	Name:      "records_written_total",
	Help:      "Billing records persisted, by utility and action.",
}, []string{"utility", "action"})

var ValidationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "ledger",
	Name:      "validation_rejections_total",
	Help:      "Writes rejected before persistence, by utility and reason.",
}, []string{"utility", "reason"})

var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "ledger",
	Name:      "persistence_failures_total",
	Help:      "Store errors on create, update or delete.",
}, []string{"utility", "action"})

var EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "events",
	Name:      "publish_failures_total",
	Help:      "Record events that could not be published.",
})

var EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "events",
	Name:      "consumed_total",
	Help:      "Record events handled by the worker, by utility and action.",
}, []string{"utility", "action"})

var LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "auth",
	Name:      "login_attempts_total",
	Help:      "Login attempts by outcome.",
}, []string{"outcome"})

var InsightsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "insights",
	Name:      "requests_total",
	Help:      "Insight generations by outcome (ok, fallback, disabled).",
}, []string{"outcome"})

var SheetsSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "worker",
	Name:      "sheets_syncs_total",
	Help:      "History mirror runs by outcome (written, unchanged, error).",
}, []string{"outcome"})

var RecordsInMemory = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cuentas",
	Subsystem: "ledger",
	Name:      "records",
	Help:      "Records currently held in the in-memory snapshot, by utility.",
}, []string{"utility"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method and status code.",
}, []string{"method", "code"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "cuentas",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})

var SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Requests matching a known probing pattern.",
})

// Validation rejection reasons.
const (
	ReasonInvalid   = "invalid"
	ReasonDuplicate = "duplicate_period"
)
