// Package scheduler runs background maintenance on a cron clock.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/metrics"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/storage"
)

// Janitor evicts receipts older than the retention window.
type Janitor struct {
	repo     storage.ReceiptRepository
	ttl      time.Duration
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	cron *cron.Cron
}

// NewJanitor builds a janitor. A zero ttl or interval disables Start.
func NewJanitor(repo storage.ReceiptRepository, ttl, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		repo:     repo,
		ttl:      ttl,
		interval: interval,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether the janitor has anything to do.
func (j *Janitor) Enabled() bool {
	return j.ttl > 0 && j.interval > 0
}

// Sweep removes every receipt uploaded more than ttl ago.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.ttl)

	removed, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("Receipt sweep failed", "error", err)
		return 0, err
	}

	remaining, err := j.repo.Count(ctx)
	if err != nil {
		j.logger.Warn("Failed to count receipts after sweep", "error", err)
	}
	j.metrics.ObserveEviction(removed, remaining)

	if removed > 0 {
		j.logger.Info("Evicted expired receipts",
			"removed", removed,
			"remaining", remaining,
			"cutoff", cutoff.Format(time.RFC3339))
	} else {
		j.logger.Debug("Receipt sweep found nothing to evict", "remaining", remaining)
	}
	return removed, nil
}

// Start schedules Sweep every interval. It is a no-op when disabled.
func (j *Janitor) Start() {
	if !j.Enabled() {
		j.logger.Info("Receipt janitor disabled", "ttl", j.ttl, "interval", j.interval)
		return
	}

	j.cron = cron.New()
	j.cron.Schedule(cron.Every(j.interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.interval)
		defer cancel()
		_, _ = j.Sweep(ctx)
	}))
	j.cron.Start()

	j.logger.Info("Receipt janitor started", "ttl", j.ttl, "interval", j.interval)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.cron = nil
}
