// Package task tracks the lifecycle of one upload-to-download batch: its
// status, counters and result reference, shared between the HTTP handlers
// and the single classifier run bound to the task.
package task

import "time"

// Status is the lifecycle state of a task. It only ever moves forward:
// queued -> processing -> completed or failed.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is one upload-to-download processing unit. Values handed out by the
// registry are snapshot copies; the registry owns the live state.
type Task struct {
	ID       string
	Status   Status
	Filename string

	// TotalEmails counts the valid lines of the upload. ProcessedCount,
	// LeakedCount and FreshCount are monotonic, with LeakedCount +
	// FreshCount == ProcessedCount at all times. InvalidCount counts
	// dropped malformed lines; they are never classified.
	TotalEmails    int
	ProcessedCount int
	LeakedCount    int
	FreshCount     int
	InvalidCount   int

	// Message is the human-readable current-phase description.
	Message string

	// ResultRef references the materialized fresh-list artifact; set only
	// when the task completes.
	ResultRef string

	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// Progress returns the completion percentage, 0-100. A task with no valid
// emails is already done, so it reports 100.
func (t *Task) Progress() float64 {
	if t.TotalEmails == 0 {
		if t.Status.Terminal() {
			return 100
		}
		return 0
	}
	return float64(t.ProcessedCount) / float64(t.TotalEmails) * 100
}
