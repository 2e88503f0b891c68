package manager

import (
	"context"
	"sync"
	"time"

	"github.com/kasuboski/umaru/pkg/logger"
)

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/refresher.go github.com/kasuboski/umaru/pkg/manager Refresher

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultHeartbeat       = time.Second
)

// Refresher runs a refresh cycle unless one is already running
type Refresher interface {
	TryRefresh(ctx context.Context) (bool, error)
}

// Scheduler triggers refresh cycles no more often than once per interval
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	heartbeat time.Duration

	mu       sync.Mutex
	deadline time.Time
}

func NewScheduler(r Refresher, interval, heartbeat time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	return &Scheduler{
		refresher: r,
		interval:  interval,
		heartbeat: heartbeat,
	}
}

// Tick triggers a refresh cycle when now has reached the deadline and moves the
// deadline to now plus the interval. The deadline moves even when the cycle
// fails or is skipped, so a failed crawl is retried on the next interval.
// Tick reports whether a cycle ran.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if !s.deadline.IsZero() && now.Before(s.deadline) {
		s.mu.Unlock()
		return false
	}
	s.deadline = now.Add(s.interval)
	s.mu.Unlock()

	ran, err := s.refresher.TryRefresh(ctx)
	if err != nil {
		logger.FromCtx(ctx).Warnw("scheduled refresh failed", "error", err)
	}
	return ran
}

// Deadline returns when the next cycle is due. It is zero before the first tick.
func (s *Scheduler) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

// Run ticks on every heartbeat until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx)
	log.Debugw("starting refresh scheduler",
		"interval", s.interval,
		"heartbeat", s.heartbeat)

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	s.Tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Debug("scheduler context cancelled")
			return nil
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
