// Package metrics defines all custom Prometheus metrics for the platform API.
// It is the single source of truth for metric names, labels, and help strings;
// registration happens at init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ontoacademy"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthOperationsTotal counts credential operations.
// Labels:
//   - op: "register" or "login"
//   - result: "ok" or "rejected"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of register/login attempts, by outcome.",
	},
	[]string{"op", "result"},
)

// RefreshRotationsTotal counts refresh-token exchanges.
// Label:
//   - result: "ok", "not_found", "expired", "revoked", or "lost_race"
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh-token rotation attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Sync metrics ──────────────────────────────────────────────────────────────

// SyncBatchesTotal counts batch-sync invocations.
// Label:
//   - result: "ok" (committed) or "error" (rolled back)
var SyncBatchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_batches_total",
		Help:      "Total number of batch sync transactions, by outcome.",
	},
	[]string{"result"},
)

// SyncProjectsTotal counts per-project reconciliation outcomes.
// Label:
//   - outcome: "created", "updated", or "failed"
var SyncProjectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_projects_total",
		Help:      "Total number of projects reconciled during sync, by outcome.",
	},
	[]string{"outcome"},
)

// SyncMessagesAddedTotal counts chat messages persisted through sync batches.
var SyncMessagesAddedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_messages_added_total",
		Help:      "Total number of chat messages inserted by batch sync.",
	},
)

// SyncBatchDuration measures end-to-end batch sync duration.
var SyncBatchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_batch_duration_seconds",
		Help:      "Duration of a batch sync transaction from entry to commit.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Transport metrics ─────────────────────────────────────────────────────────

// RateLimitRejectionsTotal counts requests rejected by the rate limiter.
// Label:
//   - route: the limited route group (e.g. "auth", "sync")
var RateLimitRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_rejections_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"route"},
)
