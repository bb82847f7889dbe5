package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsStarted counts sessions opened. Labels: scenario
	CallsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatch_voice",
		Subsystem: "calls",
		Name:      "started_total",
		Help:      "Calls started by scenario",
	}, []string{"scenario"})

	// CallsEnded counts finished calls. Labels: scenario, outcome, reason
	CallsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatch_voice",
		Subsystem: "calls",
		Name:      "ended_total",
		Help:      "Calls ended by scenario, call outcome and end reason",
	}, []string{"scenario", "outcome", "reason"})

	// EmergencyTriggers counts latched emergencies. Labels: scenario
	EmergencyTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatch_voice",
		Subsystem: "emergency",
		Name:      "triggers_total",
		Help:      "Emergency latches raised",
	}, []string{"scenario"})

	// RetryActions counts non-continue policy decisions. Labels: action
	RetryActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatch_voice",
		Subsystem: "retry",
		Name:      "actions_total",
		Help:      "Retry policy actions other than continue",
	}, []string{"action"})

	// ExtractionErrors counts summaries refused for configuration errors.
	ExtractionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatch_voice",
		Subsystem: "extractor",
		Name:      "errors_total",
		Help:      "Summary extractions refused by scenario",
	}, []string{"scenario"})

	// SinkFailures counts result publications that failed. Labels: sink
	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatch_voice",
		Subsystem: "results",
		Name:      "publish_failures_total",
		Help:      "Failed call result publications",
	}, []string{"sink"})

	// TurnsPerCall is the number of driver turns in a finished call.
	TurnsPerCall = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dispatch_voice",
		Subsystem: "calls",
		Name:      "driver_turns",
		Help:      "Driver turns per finished call",
		Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 16, 24},
	}, []string{"scenario"})
)
