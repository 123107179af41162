package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs a sweep every thirty seconds.
const DefaultSweepSchedule = "@every 30s"

// SweepObserver is notified after each sweep.
type SweepObserver func(removed int, took time.Duration, err error)

// Sweeper periodically removes stale entries from a Cache.
type Sweeper struct {
	cache    Cache
	schedule string
	log      *slog.Logger
	observe  SweepObserver

	mu      sync.Mutex
	cron    *cron.Cron
	timeout time.Duration
}

// NewSweeper creates a Sweeper. An empty schedule means DefaultSweepSchedule.
func NewSweeper(c Cache, schedule string, log *slog.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{cache: c, schedule: schedule, log: log, timeout: 10 * time.Second}
}

// OnSweep registers an observer, typically a metrics hook.
func (s *Sweeper) OnSweep(fn SweepObserver) {
	s.observe = fn
}

// ValidateSchedule reports whether spec is a valid cron schedule or descriptor.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return nil
}

// Start begins sweeping on the schedule. It is a no-op if already started.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	removed, err := s.cache.Sweep(ctx)
	took := time.Since(start)
	if err != nil {
		s.log.Warn("cache sweep failed", "error", err, "removed", removed)
	} else if removed > 0 {
		s.log.Debug("cache sweep", "removed", removed, "duration", took)
	}
	if s.observe != nil {
		s.observe(removed, took, err)
	}
}
