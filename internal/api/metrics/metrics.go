// Package metrics defines the custom Prometheus metrics of the GEMS CRM API.
// Every metric is registered with the default registry on package init via
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gems-crm/backend/internal/core/domain"
)

const namespace = "gems"

// ── Authentication ────────────────────────────────────────────────────────────

// AuthFailuresTotal counts rejected requests at the Authentication Gate.
// Label:
//   - reason: internal cause (missing_token, invalid_token, account_not_found, account_disabled)
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by authentication, by internal reason.",
	},
	[]string{"reason"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Authorization ─────────────────────────────────────────────────────────────

// AuthorizationDeniedTotal counts requests refused for a missing capability.
var AuthorizationDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denied_total",
		Help:      "Total number of requests denied by the permission check, by module and action.",
	},
	[]string{"module", "action"},
)

// ── Accounts ──────────────────────────────────────────────────────────────────

// AccountsCreatedTotal counts created accounts by their effective role.
var AccountsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_created_total",
		Help:      "Total number of accounts created, by effective role.",
	},
	[]string{"role"},
)

// AuditEventsDroppedTotal counts audit events discarded because the queue was full.
var AuditEventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of account audit events dropped on a full queue, by kind.",
	},
	[]string{"kind"},
)

// AuditDrops feeds AuditEventsDroppedTotal from the audit dispatcher.
type AuditDrops struct{}

func (AuditDrops) AuditEventDropped(kind domain.AccountEventKind) {
	AuditEventsDroppedTotal.WithLabelValues(string(kind)).Inc()
}

// RegisterAuditQueueDepth exposes the dispatcher backlog as a gauge.
func RegisterAuditQueueDepth(pending func() int) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_queue_depth",
			Help:      "Current number of account audit events waiting to be written.",
		},
		func() float64 { return float64(pending()) },
	)
}
