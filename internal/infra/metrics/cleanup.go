package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cleanupRunsTotal, sessionsExpiredTotal) }

var (
	cleanupRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_runs_total",
			Help: "Retention sweep cycles by outcome.",
		},
		[]string{"status"}, // ok|error
	)

	sessionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_expired_total",
			Help: "Total chat sessions removed by the retention sweeper.",
		},
	)
)

func IncCleanupRun(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	cleanupRunsTotal.WithLabelValues(status).Inc()
}

func AddSessionsExpired(n int64) {
	if n > 0 {
		sessionsExpiredTotal.Add(float64(n))
	}
}
