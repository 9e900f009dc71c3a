// Package retention garbage-collects terminal tasks and their result
// artifacts once they fall out of the retention window.
package retention

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"leadcheck/internal/result"
	"leadcheck/internal/task"
)

// Sweeper periodically removes expired tasks from the registry and their
// artifacts from the result store. Persisted fresh leads are kept; only
// the live task state and the downloadable file expire.
type Sweeper struct {
	cron     *cron.Cron
	registry *task.Registry
	results  *result.Store
	window   time.Duration
	interval int

	mu        sync.Mutex
	isRunning bool
}

// NewSweeper creates a sweeper that runs every intervalMinutes and drops
// terminal tasks older than window.
func NewSweeper(registry *task.Registry, results *result.Store, window time.Duration, intervalMinutes int) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		registry: registry,
		results:  results,
		window:   window,
		interval: intervalMinutes,
	}
}

// Start starts the sweeper
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sweeper is already running")
	}

	schedule := fmt.Sprintf("@every %dm", s.interval)
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Retention sweeper started: every %dm, window %s", s.interval, s.window)
	return nil
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	logrus.Info("Retention sweeper stopped")
}

// Sweep removes every terminal task that left the retention window.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.window)
	expired := s.registry.ExpiredBefore(cutoff)
	if len(expired) == 0 {
		return
	}

	for _, t := range expired {
		if err := s.results.Remove(t.ID); err != nil {
			logrus.Errorf("Sweep: failed to remove artifact for task %s: %v", t.ID, err)
			continue
		}
		s.registry.Delete(t.ID)
	}
	logrus.Infof("Sweep: removed %d expired tasks", len(expired))
}
