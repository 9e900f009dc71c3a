// Package classifier runs the asynchronous leak-classification batch for
// one task: normalize -> hash -> corpus lookup, partitioning the upload
// into leaked and fresh while keeping the task's counters live.
package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"leadcheck/internal/email"
	"leadcheck/internal/metrics"
	"leadcheck/internal/result"
	"leadcheck/internal/task"
)

// LeakIndex answers existence queries against the leak corpus.
type LeakIndex interface {
	Exists(ctx context.Context, normalized, hash string) (bool, error)
}

// LeadSink persists fresh leads and task traces. Implemented by
// repository.Repository.
type LeadSink interface {
	SaveFreshLeads(taskID, source string, emails []string) error
	SaveTaskRecord(t task.Task) error
}

// Options tunes a classifier run.
type Options struct {
	// CheckpointEvery bounds status message updates to one per N records.
	CheckpointEvery int
	// MaxRetries bounds lookup retries per record before the task fails.
	MaxRetries int
	// LookupRate caps corpus lookups per second; zero means unlimited.
	LookupRate float64
}

// Classifier dispatches one classification run per task.
type Classifier struct {
	registry *task.Registry
	index    LeakIndex
	results  *result.Store
	sink     LeadSink
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	opts     Options
}

// New creates a classifier. sink may be nil when lead persistence is not
// configured (tests, dry runs).
func New(registry *task.Registry, index LeakIndex, results *result.Store, sink LeadSink, m *metrics.Metrics, opts Options) *Classifier {
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = 50
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	var limiter *rate.Limiter
	if opts.LookupRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.LookupRate), 1)
	}
	return &Classifier{
		registry: registry,
		index:    index,
		results:  results,
		sink:     sink,
		metrics:  m,
		limiter:  limiter,
		opts:     opts,
	}
}

// Dispatch starts the classification run for a task in its own goroutine
// so the upload handler returns immediately.
func (c *Classifier) Dispatch(ctx context.Context, taskID string, emails []string, filename string) {
	go func() {
		if err := c.Run(ctx, taskID, emails, filename); err != nil {
			logrus.Errorf("Classification run for task %s failed: %v", taskID, err)
		}
	}()
}

// Run executes the whole batch synchronously. It is bound to the task id
// via the registry's exactly-once Start transition: a second Run for the
// same id returns an error without touching the task.
func (c *Classifier) Run(ctx context.Context, taskID string, emails []string, filename string) error {
	if err := c.registry.Start(taskID); err != nil {
		return err
	}
	c.metrics.ActiveTasks.Inc()
	defer c.metrics.ActiveTasks.Dec()

	logrus.Infof("Task %s: classifying %d emails from %s", taskID, len(emails), filename)

	fresh := make([]string, 0, len(emails))
	for i, addr := range emails {
		leaked, err := c.checkWithRetry(ctx, addr)
		if err != nil {
			c.fail(taskID, err)
			return err
		}

		if err := c.registry.RecordResult(taskID, leaked); err != nil {
			return err
		}
		c.metrics.EmailsProcessed.Inc()
		if leaked {
			c.metrics.EmailsLeaked.Inc()
		} else {
			c.metrics.EmailsFresh.Inc()
			fresh = append(fresh, addr)
		}

		if (i+1)%c.opts.CheckpointEvery == 0 {
			msg := fmt.Sprintf("Processing: %d/%d emails checked", i+1, len(emails))
			if err := c.registry.SetMessage(taskID, msg); err != nil {
				return err
			}
		}
	}

	return c.complete(taskID, filename, fresh)
}

// checkWithRetry looks up one address, retrying transient corpus failures
// before giving up and failing the task.
func (c *Classifier) checkWithRetry(ctx context.Context, addr string) (bool, error) {
	hash := email.Hash(addr)

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return false, err
			}
		}

		start := time.Now()
		leaked, err := c.index.Exists(ctx, addr, hash)
		c.metrics.LookupDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			return leaked, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}
	return false, fmt.Errorf("lookup failed after %d attempts: %w", c.opts.MaxRetries, lastErr)
}

// complete materializes the artifact before persisting the fresh leads,
// so a failed task never leaves rows behind for the date-range export or
// the download-regeneration path to pick up.
func (c *Classifier) complete(taskID, filename string, fresh []string) error {
	ref, err := c.results.Save(taskID, fresh)
	if err != nil {
		c.fail(taskID, err)
		return err
	}

	if c.sink != nil {
		if err := c.sink.SaveFreshLeads(taskID, filename, fresh); err != nil {
			if rmErr := c.results.Remove(taskID); rmErr != nil {
				logrus.Errorf("Task %s: could not remove orphaned artifact: %v", taskID, rmErr)
			}
			c.fail(taskID, err)
			return err
		}
	}

	snapshot, err := c.registry.Get(taskID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Completed: %d fresh leads found, %d leaked", len(fresh), snapshot.LeakedCount)
	if snapshot.InvalidCount > 0 {
		msg += fmt.Sprintf(" (%d invalid lines skipped)", snapshot.InvalidCount)
	}
	if err := c.registry.Complete(taskID, ref, msg); err != nil {
		return err
	}
	c.metrics.TasksCompleted.Inc()

	c.persistRecord(taskID)
	logrus.Infof("Task %s: %s", taskID, msg)
	return nil
}

// fail freezes the task's counters and records the failure. No partial
// result is materialized.
func (c *Classifier) fail(taskID string, cause error) {
	if err := c.registry.Fail(taskID, cause.Error()); err != nil {
		logrus.Errorf("Task %s: could not mark failed: %v", taskID, err)
		return
	}
	c.metrics.TasksFailed.Inc()
	c.persistRecord(taskID)
}

// persistRecord mirrors the terminal task state to the database so stats
// survive restarts. Persistence failures are logged, never propagated:
// the in-memory registry stays the authoritative live view.
func (c *Classifier) persistRecord(taskID string) {
	if c.sink == nil {
		return
	}
	snapshot, err := c.registry.Get(taskID)
	if err != nil {
		return
	}
	if err := c.sink.SaveTaskRecord(snapshot); err != nil {
		logrus.Errorf("Task %s: failed to persist task record: %v", taskID, err)
	}
}
