package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced insights.
	OutcomeSuccess = "success"
	// OutcomeDegraded labels analyses where the narrative step failed.
	OutcomeDegraded = "degraded"
	// OutcomeError labels failed analyses (pipeline or dependency issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alert_predictor",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alert_predictor",
			Name:      "analysis_seconds",
			Help:      "End-to-end analysis latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 30},
		},
	)

	narrativeDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alert_predictor",
			Name:      "narrative_seconds",
			Help:      "Language model narrative latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	historyFetchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alert_predictor",
			Name:      "history_fetch_seconds",
			Help:      "Zabbix history acquisition latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)
)

// Register attaches alert-predictor collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		narrativeDurationSeconds,
		historyFetchSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	switch label {
	case OutcomeError, OutcomeDegraded:
	default:
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveNarrative records the latency of a single narrative generation.
func ObserveNarrative(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	narrativeDurationSeconds.Observe(duration.Seconds())
}

// ObserveHistoryFetch records the latency of a Zabbix history pull.
func ObserveHistoryFetch(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	historyFetchSeconds.Observe(duration.Seconds())
}
