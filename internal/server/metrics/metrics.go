// Package metrics exposes Prometheus counters for the token lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters updated by the session flows and the cleanup
// job. Label values are bounded (result kinds, store names), so cardinality
// stays flat.
type Metrics struct {
	Logins          *prometheus.CounterVec
	Rotations       *prometheus.CounterVec
	ReuseDetections prometheus.Counter
	Revocations     prometheus.Counter
	CleanupDeleted  *prometheus.CounterVec
}

// New registers the counters with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymkeeper_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		Rotations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymkeeper_token_rotations_total",
			Help: "Refresh-token rotation attempts by result.",
		}, []string{"result"}),
		ReuseDetections: factory.NewCounter(prometheus.CounterOpts{
			Name: "gymkeeper_token_reuse_detected_total",
			Help: "Refresh tokens presented again after rotation or revocation.",
		}),
		Revocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "gymkeeper_logouts_total",
			Help: "Logout requests processed.",
		}),
		CleanupDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymkeeper_cleanup_deleted_rows_total",
			Help: "Expired token rows deleted by the cleanup sweep, by store.",
		}, []string{"store"}),
	}
}

// Counter label values.
const (
	ResultOK     = "ok"
	ResultDenied = "denied"
	ResultError  = "error"

	StoreRefreshTokens = "refresh_tokens"
	StoreRevokedTokens = "revoked_access_tokens"
)
