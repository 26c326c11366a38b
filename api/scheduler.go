/*
scheduler.go - Periodic snapshot scheduler

PURPOSE:
  While the server runs, reconciles on a fixed interval and persists each
  result, building a history of how attendance evolved over a session.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Takes one snapshot immediately on start
  - A failed run is logged and skipped; the next tick tries again

CONFIGURATION:
  - Interval: snapshot.interval (zero disables the scheduler)

USAGE:
  scheduler := NewSnapshotScheduler(handler.Snapshotter(), interval, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: CreateRun endpoint (manual snapshot)
  - attendance/store.go: Snapshotter
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/attendance-engine/attendance"
)

// SnapshotScheduler takes periodic snapshots.
type SnapshotScheduler struct {
	Snapshotter *attendance.Snapshotter
	Interval    time.Duration
	Logger      *zap.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSnapshotScheduler creates a scheduler. It does nothing until Start.
func NewSnapshotScheduler(snapshotter *attendance.Snapshotter, interval time.Duration, logger *zap.Logger) *SnapshotScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotScheduler{
		Snapshotter: snapshotter,
		Interval:    interval,
		Logger:      logger,
	}
}

// Start begins the scheduler. A non-positive interval leaves it disabled.
func (s *SnapshotScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.Logger.Info("snapshot scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.Logger.Info("snapshot scheduler started", zap.Duration("interval", s.Interval))
}

// Stop stops the scheduler and waits for an in-flight snapshot to finish.
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("snapshot scheduler stopped")
}

func (s *SnapshotScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	s.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow takes one snapshot and logs the outcome.
func (s *SnapshotScheduler) RunNow(ctx context.Context) (*attendance.Run, error) {
	run, err := s.Snapshotter.Snapshot(ctx)
	if err != nil {
		s.Logger.Error("scheduled snapshot failed", zap.Error(err))
		return nil, err
	}
	s.Logger.Info("scheduled snapshot saved",
		zap.String("run_id", string(run.ID)),
		zap.Int("present", run.Summary.Present),
		zap.Int("absent", run.Summary.Absent),
	)
	return run, nil
}
