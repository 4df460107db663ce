package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthcoach",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "healthcoach",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// LLMErrorsTotal counts failed completion calls per request type
	LLMErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthcoach",
			Name:      "llm_errors_total",
			Help:      "Total completion service failures",
		},
		[]string{"type", "stream"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "healthcoach",
			Name:      "llm_duration_seconds",
			Help:      "Completion call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"type", "stream"},
	)

	// ExtractionFailuresTotal counts analyze replies without a parseable object
	ExtractionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "healthcoach",
			Name:      "extraction_failures_total",
			Help:      "Analyze replies without a parseable nutrition object",
		},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "healthcoach",
			Name:      "active_streams",
			Help:      "Currently active coach streams",
		},
	)
)

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// knownTypes bounds the "type" label; the value comes from request bodies.
var knownTypes = map[string]bool{
	"daily_message": true,
	"analyze":       true,
	"conversation":  true,
	"motivate":      true,
	"coach":         true,
}

// TypeLabel maps a request type to a fixed label set.
func TypeLabel(reqType string) string {
	if knownTypes[reqType] {
		return reqType
	}
	return "other"
}

// RecordLLM records one completion call; failed calls are also counted as errors.
func RecordLLM(reqType string, stream bool, durationSec float64, err error) {
	t, s := TypeLabel(reqType), boolLabel(stream)
	LLMDuration.WithLabelValues(t, s).Observe(durationSec)
	if err != nil {
		LLMErrorsTotal.WithLabelValues(t, s).Inc()
	}
}
