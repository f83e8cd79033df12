package worker

import (
	"context"
	"log/slog"
	"time"

	"firmdesk.app/intake/common/logger"
)

type ReclaimerConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// Reclaimer periodically fails jobs whose claim outlived StaleAfter. This
// handles a worker dying between claiming a job and recording its outcome.
type Reclaimer struct {
	jobs StaleReclaimer
	cfg  ReclaimerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(jobs StaleReclaimer, cfg ReclaimerConfig) *Reclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	return &Reclaimer{
		jobs:      jobs,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the reclaimer loop. Blocks until Stop is called or ctx ends.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "intake.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"stale_after", r.cfg.StaleAfter)

	// Jobs orphaned by the previous process are recovered at startup rather
	// than one interval later.
	r.reclaimOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			r.reclaimOnce(ctx)
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

func (r *Reclaimer) reclaimOnce(ctx context.Context) {
	n, err := r.jobs.ReclaimStale(ctx, r.cfg.StaleAfter)
	if err != nil {
		slog.ErrorContext(ctx, "reclaim cycle error", "error", err, "reclaimed", n)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "stale claims reclaimed", "count", n)
	}
}
