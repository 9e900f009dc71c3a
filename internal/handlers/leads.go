package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"leadcheck/internal/email"
	"leadcheck/internal/models"
	"leadcheck/internal/result"
	"leadcheck/internal/task"
)

// UploadLeads accepts a newline-delimited .txt of email addresses,
// registers a task and dispatches its classification run. The call
// returns immediately with the task id; progress is polled separately.
func (h *Handlers) UploadLeads(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "A file upload is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".txt") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Only .txt files are allowed",
			Code:    http.StatusBadRequest,
		})
		return
	}

	maxBytes := int64(h.maxUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("File size exceeds %dMB limit", h.maxUploadMB),
			Code:    http.StatusBadRequest,
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Could not read uploaded file",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer f.Close()

	emails, invalid, err := email.ParseBatch(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Could not read uploaded file",
			Code:    http.StatusBadRequest,
		})
		return
	}

	created := h.registry.Create(fileHeader.Filename, len(emails), invalid)
	h.metrics.UploadCount.Inc()
	h.metrics.EmailsInvalid.Add(float64(invalid))

	if err := h.store.SaveTaskRecord(created); err != nil {
		// The live registry stays authoritative; losing the trace row
		// only degrades /admin/stats.
		logrus.Errorf("Task %s: failed to persist initial record: %v", created.ID, err)
	}

	// The batch outlives this request, so the classifier gets its own
	// context rather than the request's.
	h.classifier.Dispatch(context.Background(), created.ID, emails, fileHeader.Filename)

	logrus.Infof("Upload accepted: task %s, %d valid emails, %d invalid lines", created.ID, len(emails), invalid)
	c.JSON(http.StatusOK, models.UploadResponse{
		TaskID:      created.ID,
		Message:     "File uploaded successfully. Processing started.",
		TotalEmails: len(emails),
	})
}

// TaskStatus returns the live snapshot of a task's progress.
func (h *Handlers) TaskStatus(c *gin.Context) {
	snapshot, err := h.registry.Get(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, models.TaskStatusResponse{
		TaskID:         snapshot.ID,
		Status:         string(snapshot.Status),
		Progress:       snapshot.Progress(),
		TotalEmails:    snapshot.TotalEmails,
		ProcessedCount: snapshot.ProcessedCount,
		LeakedCount:    snapshot.LeakedCount,
		FreshCount:     snapshot.FreshCount,
		Message:        snapshot.Message,
	})
}

// DownloadResult serves the fresh-list artifact of a completed task.
// Downloads are repeatable; the same task always yields identical bytes.
func (h *Handlers) DownloadResult(c *gin.Context) {
	taskID := c.Param("task_id")
	snapshot, err := h.registry.Get(taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	switch snapshot.Status {
	case task.StatusQueued, task.StatusProcessing:
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "not_ready",
			Message: fmt.Sprintf("Task is not completed. Current status: %s", snapshot.Status),
			Code:    http.StatusConflict,
		})
		return
	case task.StatusFailed:
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Task failed; no result is available",
			Code:    http.StatusNotFound,
		})
		return
	}

	if snapshot.FreshCount == 0 {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "empty_result",
			Message: "All uploaded emails were found in the leak corpus",
			Code:    http.StatusConflict,
		})
		return
	}

	path, err := h.results.Fetch(taskID)
	if errors.Is(err, result.ErrNotFound) {
		// Artifact lost (restart, cleanup); regenerate from the persisted
		// fresh leads.
		path, err = h.regenerateResult(taskID)
	}
	if err != nil {
		logrus.Errorf("Task %s: could not serve result: %v", taskID, err)
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Result file not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.FileAttachment(path, fmt.Sprintf("fresh_leads_%s.txt", taskID))
}

func (h *Handlers) regenerateResult(taskID string) (string, error) {
	emails, err := h.store.GetFreshLeadsByTask(taskID)
	if err != nil {
		return "", err
	}
	if len(emails) == 0 {
		return "", result.ErrNotFound
	}
	if _, err := h.results.Save(taskID, emails); err != nil && !errors.Is(err, result.ErrAlreadyStored) {
		return "", err
	}
	return h.results.Fetch(taskID)
}
