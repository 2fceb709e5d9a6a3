package edit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RESULT_OK      = "ok"
	RESULT_FAILED  = "failed"
	RESULT_ABORTED = "aborted"
)

// Metrics are the prometheus metrics of a controller.
type Metrics struct {
	lists    *prometheus.CounterVec
	tasks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	history  prometheus.Gauge
}

// NewMetrics creates the metrics and registers them at the given
// registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lists: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_lists_total",
			Help:      "Total number of executed edit operations",
		}, []string{"operation", "result"}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of applied atomic tasks",
		}, []string{"operation"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of edit operations",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}),
		history: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_size",
			Help:      "Current number of task lists in the undo history",
		}),
	}
}

func (m *Metrics) observe(op, result string, tasks int) {
	m.lists.WithLabelValues(op, result).Inc()
	if tasks > 0 {
		m.tasks.WithLabelValues(op).Add(float64(tasks))
	}
}

func (m *Metrics) timer(op string) *prometheus.Timer {
	return prometheus.NewTimer(m.duration.WithLabelValues(op))
}

func (m *Metrics) historySize(n int) {
	m.history.Set(float64(n))
}
