package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mdshare"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// DocumentOperations counts document and comment operations by outcome
	// (ok, not_found, forbidden, invalid, policy, error).
	DocumentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "document_operations_total", Help: "Document operations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	PolicyDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "policy_denials_total", Help: "Access policy denials by check."},
		[]string{"check"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DocumentOperations)
	reg.MustRegister(PolicyDenials)
}
