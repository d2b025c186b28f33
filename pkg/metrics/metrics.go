package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Settlements counts settlement attempts by method and outcome.
	Settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnbook_settlements_total",
			Help: "Settlement attempts by method and outcome",
		},
		[]string{"method", "status"},
	)

	// SettlementFailures counts failed settlement attempts by the step
	// that failed (load, persist, close).
	SettlementFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnbook_settlement_failures_total",
			Help: "Failed settlement attempts by step",
		},
		[]string{"step"},
	)

	// LoanReads counts loan reads by the status resolved for display.
	LoanReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnbook_loan_reads_total",
			Help: "Loan reads by resolved display status",
		},
		[]string{"status"},
	)
)
