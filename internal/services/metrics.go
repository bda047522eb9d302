// Package services – Prometheus instrumentation for the escrow core.
//
// These collectors track the two producers of payment release (explicit
// confirmation and sweep auto-release) and the anomalies the sweep tolerates.
// All collectors are safe for concurrent use.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// confirmationsTotal counts explicit client confirmations by outcome:
	// "confirmed", "already_resolved", "forbidden", "not_found", "error".
	confirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_confirmations_total",
			Help: "Total explicit confirmation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// sweepRuns counts sweep invocations.
	sweepRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_sweep_runs_total",
			Help: "Total expiry sweep executions.",
		},
	)

	// sweepReleased counts confirmations auto-released by the sweep.
	sweepReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_sweep_released_total",
			Help: "Total confirmations auto-released by the expiry sweep.",
		},
	)

	// sweepFailures counts per-record sweep failures that were isolated and
	// skipped (the sweep itself kept running).
	sweepFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_sweep_record_failures_total",
			Help: "Total per-record failures isolated during expiry sweeps.",
		},
	)

	// integrityWarnings counts non-fatal data anomalies (e.g., a confirmation
	// resolved while its linked payment is missing or not in escrow).
	integrityWarnings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_integrity_warnings_total",
			Help: "Total non-fatal data-integrity anomalies observed.",
		},
	)
)

func init() {
	prometheus.MustRegister(confirmationsTotal, sweepRuns, sweepReleased, sweepFailures, integrityWarnings)
}
