package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts runs and Monte Carlo draws.
type Metrics struct {
	runs       *prometheus.CounterVec
	iterations *prometheus.CounterVec
}

// NewMetrics registers the runner collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: kind, disposition ("error" when the run failed)
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tolstack",
			Subsystem: "runner",
			Name:      "runs_total",
			Help:      "Analysis runs by document kind and disposition",
		}, []string{"kind", "disposition"}),
		// Labels: kind
		iterations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tolstack",
			Subsystem: "runner",
			Name:      "monte_carlo_iterations_total",
			Help:      "Monte Carlo draws performed",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observe(kind, disposition string, iterations int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, disposition).Inc()
	if iterations > 0 {
		m.iterations.WithLabelValues(kind).Add(float64(iterations))
	}
}
