package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for the Agent Loop and Command
// Surface: run throughput and latency, tool-call outcomes, approval
// decisions, token usage, and concurrency-cap utilization.
//
// Grounded on the teacher's internal/observability/metrics.go
// CounterVec/HistogramVec/GaugeVec field shape and Record*/label-value
// method style, narrowed from its channel/webhook/HTTP/database metrics
// (a different domain this module doesn't implement) down to the run/
// tool/approval/concurrency surface SPEC_FULL.md's observability section
// names. Unlike the teacher's NewMetrics, which registers directly
// against prometheus's global DefaultRegisterer via promauto, NewMetrics
// here takes an explicit prometheus.Registerer so tests (and a process
// that builds more than one Metrics, e.g. in subtests) never collide on
// global registration.
type Metrics struct {
	// RunsTotal counts run attempts by terminal status
	// (completed|failed|cancelled).
	RunsTotal *prometheus.CounterVec

	// RunDuration measures wall-clock run time in seconds.
	RunDuration *prometheus.HistogramVec

	// ActiveRuns is a gauge of runs currently executing, for watching
	// MAX_CONCURRENT_RUNS utilization.
	ActiveRuns prometheus.Gauge

	// ToolCallsTotal counts dispatched tool calls by tool name and
	// outcome (success|error|skipped|denied).
	ToolCallsTotal *prometheus.CounterVec

	// ApprovalsTotal counts approval decisions by outcome
	// (approved|denied|timeout).
	ApprovalsTotal *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption by provider, model, and
	// type (input|output).
	LLMTokensUsed *prometheus.CounterVec
}

// NewMetrics creates and registers every metric against reg. Pass
// prometheus.DefaultRegisterer for normal process use, or a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := prometheus.WrapRegistererWithPrefix("agentcore_", reg)
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runs_total",
				Help: "Total number of agent runs by terminal status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_runs",
				Help: "Current number of agent runs in flight",
			},
		),
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_calls_total",
				Help: "Total number of dispatched tool calls by tool name and outcome",
			},
			[]string{"tool_name", "outcome"},
		),
		ApprovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "approvals_total",
				Help: "Total number of tool-call approval decisions by outcome",
			},
			[]string{"outcome"},
		),
		LLMTokensUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),
	}
	factory.MustRegister(m.RunsTotal, m.RunDuration, m.ActiveRuns, m.ToolCallsTotal, m.ApprovalsTotal, m.LLMTokensUsed)
	return m
}

// RunStarted increments ActiveRuns.
func (m *Metrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// RunFinished decrements ActiveRuns and records the terminal status and
// duration of the run that just ended.
func (m *Metrics) RunFinished(status string, durationSeconds float64) {
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordToolCall records one dispatched tool call's outcome.
func (m *Metrics) RecordToolCall(toolName, outcome string) {
	m.ToolCallsTotal.WithLabelValues(toolName, outcome).Inc()
}

// RecordApproval records one approval decision's outcome.
func (m *Metrics) RecordApproval(outcome string) {
	m.ApprovalsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokens records token usage for one LLM call.
func (m *Metrics) RecordTokens(provider, model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}
