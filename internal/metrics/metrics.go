// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finstress"

var (
	ExpensesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "expenses",
		Name:      "added_total",
		Help:      "Expenses recorded.",
	})

	ExpensesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "expenses",
		Name:      "deleted_total",
		Help:      "Expenses removed.",
	})

	ReportsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "rendered_total",
		Help:      "PDF reports requested, by result.",
	}, []string{"result"})

	chatResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "response_time_seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"outcome"})
)

// ObserveChat records one assistant exchange. Its signature matches
// chat.Observer.
func ObserveChat(outcome string, elapsed time.Duration) {
	chatResponseTime.
		WithLabelValues(outcome).
		Observe(elapsed.Seconds())
}

// ReportResult labels a report request.
func ReportResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
