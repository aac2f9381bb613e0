package completion

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts completion calls.
	// Labels: provider, structured (true, false), result (success, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "condense",
			Subsystem: "completion",
			Name:      "requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "structured", "result"},
	)

	// RequestDuration tracks completion latency including retries.
	// Labels: provider
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "condense",
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Duration of completion requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)
)

func observe(provider string, structured bool, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RequestsTotal.WithLabelValues(provider, strconv.FormatBool(structured), result).Inc()
	RequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
