package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClaimsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "claimdesk", Name: "claims_submitted_total", Help: "Number of claims created."},
	)
	ClaimDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "claimdesk", Name: "claim_decisions_total", Help: "Number of saved decisions by resulting status."},
		[]string{"status"},
	)
	ReceiptUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "claimdesk", Name: "receipt_uploads_total", Help: "Receipt uploads to object storage by result."},
		[]string{"result"},
	)
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "claimdesk", Name: "auth_failures_total", Help: "Rejected requests by authentication/authorization reason."},
		[]string{"reason"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(ClaimsSubmitted)
	reg.MustRegister(ClaimDecisions)
	reg.MustRegister(ReceiptUploads)
	reg.MustRegister(AuthFailures)
}
