package services

import (
	"context"
	"sync/atomic"
	"time"

	"interview-coach/internal/tracking"

	"go.uber.org/zap"
)

// Sweeper periodically stops behaviour samplers whose client went quiet without finishing.
type Sweeper struct {
	log      *zap.Logger
	registry *tracking.Registry
	idle     atomic.Int64
	interval time.Duration
}

func NewSweeper(log *zap.Logger, registry *tracking.Registry, idle, interval time.Duration) *Sweeper {
	s := &Sweeper{
		log:      log,
		registry: registry,
		interval: interval,
	}
	s.idle.Store(int64(idle))
	return s
}

// SetIdleTimeout changes the idle timeout used by the following sweeps.
func (s *Sweeper) SetIdleTimeout(idle time.Duration) {
	if idle <= 0 {
		s.log.Warn("Ignoring non-positive idle timeout", zap.Duration("idle_timeout", idle))
		return
	}
	s.idle.Store(int64(idle))
	s.log.Info("Idle tracker timeout updated", zap.Duration("idle_timeout", idle))
}

func (s *Sweeper) idleTimeout() time.Duration {
	return time.Duration(s.idle.Load())
}

// Start runs the sweeper in a goroutine until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("Starting idle tracker sweeper...", zap.Duration("idle_timeout", s.idleTimeout()))
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
}

func (s *Sweeper) sweep(now time.Time) {
	s.log.Debug("Running idle tracker sweep", zap.Int("active", s.registry.Len()))

	for _, user := range s.registry.StopIdle(now, s.idleTimeout()) {
		s.log.Info("Stopped idle behaviour tracker", zap.String("username", user))
	}
}
