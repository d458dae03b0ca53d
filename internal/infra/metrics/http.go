package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestsTotal, rateLimitBlocks) }

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status.",
		},
		[]string{"route", "status"},
	)

	rateLimitBlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_blocks_total",
			Help: "Chat requests denied by the per-user rate limiter.",
		},
	)
)

func IncHTTPRequest(route string, status int) {
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func IncRateLimitBlock() { rateLimitBlocks.Inc() }
