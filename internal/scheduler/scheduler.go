package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Default settings for the session sweeper
const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultIdleTTL       = 2 * time.Hour
)

// Evictor drops sessions that have been idle for too long
type Evictor interface {
	EvictIdle(ttl time.Duration) int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	evictor   Evictor
	interval  time.Duration
	idleTTL   time.Duration
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(evictor Evictor, interval, idleTTL time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		evictor:   evictor,
		interval:  interval,
		idleTTL:   idleTTL,
		logger:    logger,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.sweep); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.logger.Info("Session sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("idle_ttl", s.idleTTL))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Session sweeper stopped")
}

// RunOnce performs a sweep immediately and returns the number of evicted sessions
func (s *Scheduler) RunOnce() int {
	return s.sweep()
}

func (s *Scheduler) sweep() int {
	evicted := s.evictor.EvictIdle(s.idleTTL)
	if evicted > 0 {
		s.logger.Info("Evicted idle sessions", zap.Int("count", evicted))
	}
	return evicted
}
