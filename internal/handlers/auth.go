package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"leadcheck/internal/models"
)

// deviceKeyHeader carries the device key on gated endpoints.
const deviceKeyHeader = "X-Device-Key"

// VerifyKey checks a device key for the client before it starts using the
// gated endpoints.
func (h *Handlers) VerifyKey(c *gin.Context) {
	var req models.VerifyKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	valid, err := h.store.VerifyDeviceKey(req.DeviceKey)
	if err != nil {
		logrus.Errorf("Device key verification failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "storage_unavailable",
			Message: "Could not verify device key",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	if valid {
		c.JSON(http.StatusOK, models.VerifyKeyResponse{Valid: true, Message: "Device key is valid"})
		return
	}
	c.JSON(http.StatusOK, models.VerifyKeyResponse{Valid: false, Message: "Invalid or inactive device key"})
}

// deviceKeyRequired gates the leads endpoints on an active device key.
func (h *Handlers) deviceKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(deviceKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "auth_error",
				Message: "Missing device key",
				Code:    http.StatusUnauthorized,
			})
			return
		}

		valid, err := h.store.VerifyDeviceKey(key)
		if err != nil {
			logrus.Errorf("Device key verification failed: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "storage_unavailable",
				Message: "Could not verify device key",
				Code:    http.StatusServiceUnavailable,
			})
			return
		}
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "auth_error",
				Message: "Invalid or inactive device key",
				Code:    http.StatusUnauthorized,
			})
			return
		}
		c.Next()
	}
}

// adminRequired gates the admin surface on the configured bearer token.
func (h *Handlers) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "auth_error",
				Message: "Invalid admin token",
				Code:    http.StatusUnauthorized,
			})
			return
		}
		c.Next()
	}
}
