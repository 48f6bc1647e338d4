// Package metrics exposes the Prometheus instruments for the core flows.
// ConsistencyFaults is the alerting hook for ledger invariant violations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ExpensesCreated counts successfully created expenses.
	ExpensesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpro_expenses_created_total",
		Help: "Number of expenses created.",
	})

	// ExpensesDeleted counts successfully soft-deleted expenses.
	ExpensesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpro_expenses_deleted_total",
		Help: "Number of expenses soft-deleted.",
	})

	// TransfersApplied counts ledger pair mutations, including reversals.
	TransfersApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpro_ledger_transfers_applied_total",
		Help: "Number of balance transfers applied to the ledger.",
	})

	// TransferRetries counts transparent retries of the pair mutation.
	TransferRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpro_ledger_transfer_retries_total",
		Help: "Number of retried ledger pair mutations.",
	})

	// ConsistencyFaults counts detected ledger symmetry violations.
	// Any increase should page: it means a correctness bug or a
	// crash-recovery gap, not a bad request.
	ConsistencyFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpro_ledger_consistency_faults_total",
		Help: "Number of detected ledger symmetry violations.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
