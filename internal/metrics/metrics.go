// Package metrics defines the Prometheus metrics of the admin backend.
// All metrics are registered on the default registry through promauto and
// exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "role_admin"

// GuardDecisionsTotal counts access guard evaluations.
// Labels:
//   - guard: "authenticated", "admin", "admin_or_editor"
//   - result: "allowed" or "denied"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard evaluations, by guard and result.",
	},
	[]string{"guard", "result"},
)

// AuthenticationsTotal counts login attempts.
// Label:
//   - result: "success", "not_found", "banned", "bad_credential", "error"
var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// StatusTransitionsTotal counts applied status changes.
// Labels:
//   - entity: "user", "order", "vip"
//   - status: the new status (ACTIVE, BANNED, an order status name, set/cleared)
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of status changes applied, by entity and target status.",
	},
	[]string{"entity", "status"},
)

// RequestDuration measures HTTP handler latency.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by route and status code.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route", "code"},
)
