package services

import (
	"context"
	"time"

	"gymkeeper/internal/logging"
)

// CleanupJob periodically deletes expired refresh-token and blacklist rows.
// The sweep is idempotent, so overlapping runs (or a second server instance)
// just delete zero rows.
type CleanupJob struct {
	sessions *SessionService
	interval time.Duration
	logger   logging.Logger
}

// NewCleanupJob wires the sweep to the session service's stores.
func NewCleanupJob(sessions *SessionService, interval time.Duration, logger logging.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		interval: interval,
		logger:   logger.With("module", "cleanup"),
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled. A failed sweep is logged and retried on the next tick; it never
// stops the job.
func (j *CleanupJob) Run(ctx context.Context) {
	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (j *CleanupJob) RunOnce(ctx context.Context) {
	refresh, revoked, err := j.sessions.Cleanup(ctx)
	if err != nil {
		j.logger.Error(ctx, "cleanup sweep failed", "error", err)
		return
	}
	if refresh > 0 || revoked > 0 {
		j.logger.Info(ctx, "cleanup sweep finished",
			"refresh_tokens_deleted", refresh,
			"revoked_tokens_deleted", revoked)
	}
}
