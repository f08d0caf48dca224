package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// Sweeper runs one catalog-wide compare sweep.
type Sweeper interface {
	SweepCompare(ctx context.Context) []model.SyncReport
}

// sweepRequest represents a manual sweep trigger.
type sweepRequest struct {
	done chan []model.SyncReport
}

// SweepScheduler owns the single goroutine that runs compare sweeps, so that
// a startup sweep, periodic sweeps and on-demand sweeps never overlap one
// another. Sweeps run on the scheduler's context: a caller giving up early
// does not abort a sweep that has started.
type SweepScheduler struct {
	sweeper    Sweeper
	interval   time.Duration
	runAtStart bool
	requests   chan sweepRequest
	logger     *slog.Logger
}

// NewSweepScheduler creates a scheduler. interval <= 0 disables periodic
// sweeps; runAtStart runs one sweep as soon as Start is called.
func NewSweepScheduler(sweeper Sweeper, interval time.Duration, runAtStart bool, logger *slog.Logger) *SweepScheduler {
	return &SweepScheduler{
		sweeper:    sweeper,
		interval:   interval,
		runAtStart: runAtStart,
		requests:   make(chan sweepRequest),
		logger:     logger,
	}
}

// Start runs the scheduling loop. It blocks until ctx is canceled.
func (s *SweepScheduler) Start(ctx context.Context) {
	if s.runAtStart {
		s.logger.Info("running startup compare sweep")
		s.run(ctx)
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return
		case <-tick:
			s.run(ctx)
		case req := <-s.requests:
			req.done <- s.run(ctx)
		}
	}
}

// SweepCompare asks the loop for a sweep and waits for its reports. It
// returns nil if ctx ends first.
func (s *SweepScheduler) SweepCompare(ctx context.Context) []model.SyncReport {
	req := sweepRequest{done: make(chan []model.SyncReport, 1)}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return nil
	}

	select {
	case reports := <-req.done:
		return reports
	case <-ctx.Done():
		return nil
	}
}

func (s *SweepScheduler) run(ctx context.Context) []model.SyncReport {
	start := time.Now()
	reports := s.sweeper.SweepCompare(ctx)
	s.logger.Info("compare sweep complete",
		"repos", len(reports),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return reports
}
