// Package metrics provides Prometheus observability metrics for the
// review pipeline. It includes Critical and Important metrics for
// business and operational visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Business Impact Visibility
// =============================================================================

// InteractionsIngested tracks interactions loaded per run, by channel.
var InteractionsIngested = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "review",
	Name:      "interactions_ingested",
	Help:      "Number of interactions loaded from the data directory, by channel",
}, []string{"channel"})

// CasesLinked tracks the number of cases produced by the linker.
var CasesLinked = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "review",
	Name:      "cases_linked",
	Help:      "Number of cases produced by linking interactions",
})

// GateVerdicts tracks gate outcomes by channel, mode and result.
var GateVerdicts = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "review",
	Name:      "gate_verdicts_total",
	Help:      "Content gate verdicts by channel, strictness mode and result",
}, []string{"channel", "mode", "result"})

// SelectionsByTier tracks how selections resolved: strict, loose_gate,
// date_widening or skipped. A rising skipped share means the period's
// data is too thin to review.
var SelectionsByTier = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "review",
	Name:      "selections_by_tier_total",
	Help:      "Per-channel selection outcomes by tier",
}, []string{"channel", "tier"})

// AgentsSkippedTotal tracks agent-channel slots with no evaluable case.
var AgentsSkippedTotal = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "review",
	Name:      "agents_skipped_total",
	Help:      "Agent-channel slots where no evaluable case was found in target or extended range",
})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// IngestErrorsTotal tracks skipped source files by reason.
var IngestErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ingest",
	Name:      "errors_total",
	Help:      "Source files skipped during ingestion, by error type",
}, []string{"error_type"})

// TranscriptionDurationSeconds tracks time spent transcribing one file.
var TranscriptionDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "transcript",
	Name:      "duration_seconds",
	Help:      "Time taken to transcribe one audio file (cache misses only)",
	Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
})

// EvaluationDurationSeconds tracks time per LLM evaluation call.
var EvaluationDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "evaluator",
	Name:      "duration_seconds",
	Help:      "Time taken to evaluate one case via the LLM",
	Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetRunGauges resets all per-run gauges before a new pipeline run.
func ResetRunGauges() {
	InteractionsIngested.Reset()
	CasesLinked.Set(0)
	AgentsSkippedTotal.Set(0)
}
