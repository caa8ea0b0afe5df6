package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "yamdb_authz_decisions_total",
		Help: "Authorization decisions by role, object, action and outcome",
	},
	[]string{"role", "object", "action", "decision"},
)

func recordDecision(role, object, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	decisionsTotal.WithLabelValues(role, object, action, decision).Inc()
}
