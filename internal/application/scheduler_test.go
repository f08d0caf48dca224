package application_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/assetsync/internal/application"
	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

type countingSweeper struct {
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
}

func (c *countingSweeper) SweepCompare(_ context.Context) []model.SyncReport {
	if c.running.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.running.Add(-1)
	c.calls.Add(1)
	time.Sleep(c.delay)
	return []model.SyncReport{{Repo: "org/repo", Status: model.RunNoop}}
}

func TestSweepScheduler_RunsAtStart(t *testing.T) {
	sweeper := &countingSweeper{}
	s := application.NewSweepScheduler(sweeper, 0, true, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	require.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSweepScheduler_SweepCompareOnDemand(t *testing.T) {
	sweeper := &countingSweeper{}
	s := application.NewSweepScheduler(sweeper, 0, false, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	reports := s.SweepCompare(context.Background())

	require.Len(t, reports, 1)
	assert.Equal(t, "org/repo", reports[0].Repo)
	assert.Equal(t, int32(1), sweeper.calls.Load())
}

func TestSweepScheduler_PeriodicSweeps(t *testing.T) {
	sweeper := &countingSweeper{}
	s := application.NewSweepScheduler(sweeper, 10*time.Millisecond, false, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestSweepScheduler_SweepsNeverOverlap(t *testing.T) {
	sweeper := &countingSweeper{delay: 5 * time.Millisecond}
	s := application.NewSweepScheduler(sweeper, 2*time.Millisecond, true, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	done := make(chan struct{})
	for range 4 {
		go func() {
			s.SweepCompare(ctx)
			done <- struct{}{}
		}()
	}
	for range 4 {
		<-done
	}

	assert.False(t, sweeper.overlap.Load())
}

func TestSweepScheduler_CallerContextCanceled(t *testing.T) {
	sweeper := &countingSweeper{}
	// Never started: the request can not be delivered.
	s := application.NewSweepScheduler(sweeper, 0, false, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Nil(t, s.SweepCompare(ctx))
	assert.Zero(t, sweeper.calls.Load())
}
