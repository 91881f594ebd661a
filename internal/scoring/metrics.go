package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks reconciliation activity
type Metrics struct {
	Passes          prometheus.Counter
	CancelledPasses prometheus.Counter
	Writes          prometheus.Counter
	WriteFailures   prometheus.Counter
	PassDuration    prometheus.Histogram
}

// NewMetrics creates the reconciler metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "scoring",
			Name:      "passes_total",
			Help:      "Reconciliation passes that found something to score.",
		}),
		CancelledPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "scoring",
			Name:      "cancelled_passes_total",
			Help:      "Passes stopped early because newer data arrived or the server shut down.",
		}),
		Writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "scoring",
			Name:      "score_writes_total",
			Help:      "Pick scores written.",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "scoring",
			Name:      "score_write_failures_total",
			Help:      "Pick score writes that failed.",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pickem",
			Subsystem: "scoring",
			Name:      "pass_duration_seconds",
			Help:      "Time spent in a reconciliation pass.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Passes, m.CancelledPasses, m.Writes, m.WriteFailures, m.PassDuration)
	}
	return m
}
