// Package scheduler re-runs the dashboard loads on a cron schedule so that a
// long-running session picks up documents regenerated by the data pipeline.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/applause/dashboard/internal/dashboard"
	"github.com/applause/dashboard/internal/store"
)

// Refresher is the part of the controller the scheduler drives.
type Refresher interface {
	LoadInsights(ctx context.Context) (*store.QuantInsights, error)
	RefreshCurrent(ctx context.Context) (*dashboard.CoinView, error)
}

// Scheduler manages the refresh job.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	timeout   time.Duration
}

// New creates a Scheduler. Each run is bounded by timeout.
func New(refresher Refresher, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		refresher: refresher,
		timeout:   timeout,
	}
}

// Register schedules the refresh job. spec uses the six-field cron format
// with seconds, or a descriptor such as "@every 10m".
func (s *Scheduler) Register(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(ctx) }); err != nil {
		return fmt.Errorf("register refresh job %q: %w", spec, err)
	}
	slog.Info("refresh_scheduled", "spec", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow reloads the insights and the selected coin.
func (s *Scheduler) RunNow(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	_, insightsErr := s.refresher.LoadInsights(ctx)
	_, coinErr := s.refresher.RefreshCurrent(ctx)
	if errors.Is(coinErr, dashboard.ErrNoSelection) || errors.Is(coinErr, dashboard.ErrLoadInFlight) {
		coinErr = nil
	}

	slog.Info("refresh_completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"insights_error", errString(insightsErr),
		"coin_error", errString(coinErr),
	)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
