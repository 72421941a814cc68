package pathfind

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeFound       = "found"
	OutcomeTrivial     = "trivial"
	OutcomeNoPath      = "no_path"
	OutcomeOutOfBounds = "out_of_bounds"
	OutcomeCancelled   = "cancelled"
	OutcomeTimeout     = "timeout"
)

// Outcome classifies a search result for metrics and logs.
func Outcome(res Result) string {
	switch {
	case res.Found():
		return OutcomeFound
	case res.Err == nil:
		return OutcomeTrivial
	case errors.Is(res.Err, ErrOutOfBounds):
		return OutcomeOutOfBounds
	case errors.Is(res.Err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(res.Err, ErrNoPath):
		return OutcomeNoPath
	default:
		return OutcomeCancelled
	}
}

// Metrics exports planner counters to Prometheus. A nil *Metrics discards
// every observation.
type Metrics struct {
	searches *prometheus.CounterVec
	expanded prometheus.Histogram
	duration prometheus.Histogram
	inflight prometheus.Gauge
}

// NewMetrics creates the planner collectors and registers them on reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tugnav",
			Subsystem: "pathfind",
			Name:      "searches_total",
			Help:      "Completed path searches by outcome.",
		}, []string{"outcome"}),
		expanded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tugnav",
			Subsystem: "pathfind",
			Name:      "expanded_nodes",
			Help:      "Cells expanded per search.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tugnav",
			Subsystem: "pathfind",
			Name:      "search_seconds",
			Help:      "Wall time per search including queueing for a worker.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tugnav",
			Subsystem: "pathfind",
			Name:      "inflight",
			Help:      "Searches submitted and not yet delivered.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.searches, m.expanded, m.duration, m.inflight)
	}
	return m
}

func (m *Metrics) begin() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) observe(res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.searches.WithLabelValues(Outcome(res)).Inc()
	m.expanded.Observe(float64(res.Expanded))
	m.duration.Observe(elapsed.Seconds())
}
