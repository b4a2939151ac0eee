// Package metrics defines the custom Prometheus metrics of the timesheet API.
// Every metric is registered with the default registry on package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timesheet"

// ── Identity metrics ──────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login and registration attempts.
// Labels:
//   - provider: "local", "google" or "github"
//   - outcome: "success", "rejected", "disabled", "conflict", "invalid" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

// AccountsCreatedTotal counts accounts created by registration or first federated login.
var AccountsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_created_total",
		Help:      "Total number of accounts created, by provider.",
	},
	[]string{"provider"},
)

// AccountExistenceChecksTotal counts oracle lookups.
// Label:
//   - result: "found", "missing" or "error"
var AccountExistenceChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_existence_checks_total",
		Help:      "Total number of account existence checks, by result.",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventPublishFailuresTotal counts events that could not be appended to a stream.
var EventPublishFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Total number of events that failed to reach their Redis stream.",
	},
	[]string{"stream"},
)

// DispatchQueueDepth tracks the resource events waiting in each worker channel.
var DispatchQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Current number of resource events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// LiveClients is the number of connected websocket clients.
var LiveClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_clients",
		Help:      "Current number of websocket clients subscribed to live updates.",
	},
)
