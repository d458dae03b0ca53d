package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		completionTokensIn,
		completionTokensOut,
		completionLatencyMs,
		completionRetries,
	)
}

var (
	completionTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_tokens_in",
			Help: "Sum of prompt (input) tokens per model.",
		},
		[]string{"model"},
	)

	completionTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_tokens_out",
			Help: "Sum of generated (output) tokens per model.",
		},
		[]string{"model"},
	)

	completionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_latency_ms",
			Help:    "Completion call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"model", "success"},
	)

	completionRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_retries_total",
			Help: "Retried completion attempts per failure class.",
		},
		[]string{"reason"}, // timeout|rate_limited|server_error
	)
)

func AddCompletionTokens(model string, in, out int) {
	if in > 0 {
		completionTokensIn.WithLabelValues(model).Add(float64(in))
	}
	if out > 0 {
		completionTokensOut.WithLabelValues(model).Add(float64(out))
	}
}

func ObserveCompletionLatency(model string, ms float64, success bool) {
	completionLatencyMs.WithLabelValues(model, strconv.FormatBool(success)).Observe(ms)
}

func IncCompletionRetry(reason string) {
	completionRetries.WithLabelValues(reason).Inc()
}
