package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired task ids.
var ErrNotFound = errors.New("task not found")

// entry pairs a task with its own lock so updates to one task never
// contend with reads or writes on another.
type entry struct {
	mu   sync.Mutex
	task Task
}

// Registry is the in-memory map from task id to task state. Reads return
// snapshot copies; writes are serialized per task id.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Create registers a new queued task and returns a snapshot of it.
func (r *Registry) Create(filename string, totalEmails, invalidCount int) Task {
	t := Task{
		ID:           uuid.New().String(),
		Status:       StatusQueued,
		Filename:     filename,
		TotalEmails:  totalEmails,
		InvalidCount: invalidCount,
		Message:      "Task is queued for processing",
		CreatedAt:    time.Now().UTC(),
	}

	r.mu.Lock()
	r.entries[t.ID] = &entry{task: t}
	r.mu.Unlock()
	return t
}

// Get returns a snapshot of the task, or ErrNotFound.
func (r *Registry) Get(id string) (Task, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Task{}, err
	}
	e.mu.Lock()
	snapshot := e.task
	e.mu.Unlock()
	return snapshot, nil
}

// Start transitions a queued task to processing. It succeeds at most once
// per task, which guarantees a single classifier run per id.
func (r *Registry) Start(id string) error {
	return r.update(id, func(t *Task) error {
		if t.Status != StatusQueued {
			return fmt.Errorf("task %s already started (status %s)", id, t.Status)
		}
		t.Status = StatusProcessing
		return nil
	})
}

// RecordResult adds one classified address to the counters. Counter
// updates are atomic with respect to concurrent Get snapshots, so a poll
// never observes LeakedCount+FreshCount != ProcessedCount.
func (r *Registry) RecordResult(id string, leaked bool) error {
	return r.update(id, func(t *Task) error {
		t.ProcessedCount++
		if leaked {
			t.LeakedCount++
		} else {
			t.FreshCount++
		}
		return nil
	})
}

// SetMessage updates the current-phase description.
func (r *Registry) SetMessage(id, message string) error {
	return r.update(id, func(t *Task) error {
		t.Message = message
		return nil
	})
}

// Complete finalizes a task with its materialized result reference.
func (r *Registry) Complete(id, resultRef, message string) error {
	return r.update(id, func(t *Task) error {
		t.Status = StatusCompleted
		t.ResultRef = resultRef
		t.Message = message
		now := time.Now().UTC()
		t.CompletedAt = &now
		return nil
	})
}

// Fail moves a task to the failed state, freezing counters as they are.
func (r *Registry) Fail(id, errorMessage string) error {
	return r.update(id, func(t *Task) error {
		t.Status = StatusFailed
		t.ErrorMessage = errorMessage
		t.Message = "Failed: " + errorMessage
		now := time.Now().UTC()
		t.CompletedAt = &now
		return nil
	})
}

// Delete removes a task from the registry. Used by the retention sweeper.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// ExpiredBefore returns snapshots of terminal tasks that completed before
// the cutoff.
func (r *Registry) ExpiredBefore(cutoff time.Time) []Task {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var expired []Task
	for _, e := range entries {
		e.mu.Lock()
		t := e.task
		e.mu.Unlock()
		if t.Status.Terminal() && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			expired = append(expired, t)
		}
	}
	return expired
}

// Count returns the number of live tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// update applies a mutation under the task's own lock. Terminal tasks are
// immutable; late updates from an already-failed classifier run are
// rejected rather than applied.
func (r *Registry) update(id string, mutate func(*Task) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.task.Status.Terminal() {
		return fmt.Errorf("task %s is %s and immutable", id, e.task.Status)
	}
	return mutate(&e.task)
}
