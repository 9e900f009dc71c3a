package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadcheck/internal/models"
)

// GenerateKey creates a new active device key.
func (h *Handlers) GenerateKey(c *gin.Context) {
	key, err := h.store.CreateDeviceKey()
	if err != nil {
		logrus.Errorf("Failed to generate device key: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to generate device key",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusCreated, deviceKeyResponse(key))
}

// ListKeys returns all device keys, newest first.
func (h *Handlers) ListKeys(c *gin.Context) {
	keys, err := h.store.GetAllDeviceKeys()
	if err != nil {
		logrus.Errorf("Failed to list device keys: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch device keys",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	responses := make([]models.DeviceKeyResponse, 0, len(keys))
	for i := range keys {
		responses = append(responses, deviceKeyResponse(&keys[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// UpdateKey enables or disables a device key.
func (h *Handlers) UpdateKey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid device key ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var req models.DeviceKeyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Status must be active or inactive",
			Code:    http.StatusBadRequest,
		})
		return
	}

	key, err := h.store.UpdateDeviceKeyStatus(uint(id), req.Status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Device key not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if err != nil {
		logrus.Errorf("Failed to update device key %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update device key",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, deviceKeyResponse(key))
}

// DeleteKey removes a device key.
func (h *Handlers) DeleteKey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid device key ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	err = h.store.DeleteDeviceKey(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Device key not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if err != nil {
		logrus.Errorf("Failed to delete device key %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete device key",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Device key deleted successfully", Success: true})
}

// LeadsByDate exports the fresh leads collected within a date range as a
// newline-delimited text attachment.
func (h *Handlers) LeadsByDate(c *gin.Context) {
	from, _, err := parseDateParam(c.Query("from_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "from_date must be an ISO date or datetime",
			Code:    http.StatusBadRequest,
		})
		return
	}
	to, toDateOnly, err := parseDateParam(c.Query("to_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "to_date must be an ISO date or datetime",
			Code:    http.StatusBadRequest,
		})
		return
	}
	// A bare to_date means "through the end of that day". An explicit
	// midnight datetime is taken literally.
	if toDateOnly {
		to = to.Add(24*time.Hour - time.Second)
	}

	emails, err := h.store.GetFreshLeadsByDateRange(from, to)
	if err != nil {
		logrus.Errorf("Failed to export leads by date: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch leads",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if len(emails) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "No leads found in the specified date range",
			Code:    http.StatusNotFound,
		})
		return
	}

	name := fmt.Sprintf("leads_%s_%s.txt", from.Format("20060102"), to.Format("20060102"))
	path, err := h.results.WriteArtifact(name, emails)
	if err != nil {
		logrus.Errorf("Failed to write leads export: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to write export file",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.FileAttachment(path, name)
}

// Stats returns key, lead and task counts for the admin dashboard.
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.store.GetStats()
	if err != nil {
		logrus.Errorf("Failed to aggregate stats: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to aggregate stats",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func deviceKeyResponse(key *models.DeviceKey) models.DeviceKeyResponse {
	return models.DeviceKeyResponse{
		ID:        key.ID,
		Key:       key.Key,
		Status:    key.Status,
		CreatedAt: key.CreatedAt,
	}
}

// parseDateParam accepts an ISO date or datetime. dateOnly reports that
// the bare-date layout matched.
func parseDateParam(value string) (t time.Time, dateOnly bool, err error) {
	if value == "" {
		return time.Time{}, false, fmt.Errorf("missing date")
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q", value)
}
