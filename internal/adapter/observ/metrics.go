package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconcile_outcomes_total",
			Help: "Payment events processed, by reconciliation outcome and transport",
		},
		[]string{"outcome", "transport"},
	)

	anomaliesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_anomalies_total",
			Help: "Deliveries flagged for manual reconciliation, by kind",
		},
		[]string{"kind"},
	)
)

func ObserveOutcome(outcome, transport string) {
	reconcileOutcomes.WithLabelValues(outcome, transport).Inc()
}

func ObserveAnomaly(kind string) {
	anomaliesRecorded.WithLabelValues(kind).Inc()
}
