// File: internal/infra/sched/cleanup_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chat-gateway/internal/infra/metrics"
)

// DefaultCleanupInterval is how often expired conversations are purged.
const DefaultCleanupInterval = 24 * time.Hour

// ExpiredCleaner deletes conversations whose retention window has passed.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupWorker periodically removes expired chat sessions. A failing cycle
// is logged and counted; the loop keeps running until the context ends.
type CleanupWorker struct {
	interval time.Duration
	cleaner  ExpiredCleaner
	log      *zerolog.Logger
}

func NewCleanupWorker(interval time.Duration, cleaner ExpiredCleaner, logger *zerolog.Logger) *CleanupWorker {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	wLog := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{
		interval: interval,
		cleaner:  cleaner,
		log:      &wLog,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// First cycle runs at startup so sessions that expired while the process
	// was down don't linger a full interval.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	n, err := w.cleaner.CleanupExpired(ctx)
	if err != nil {
		metrics.IncCleanupRun(false)
		w.log.Error().Err(err).Msg("cleanup cycle failed")
		return
	}
	metrics.IncCleanupRun(true)
	if n > 0 {
		metrics.AddSessionsExpired(n)
	}
	w.log.Info().Int64("count", n).Msg("cleanup cycle finished")
}
