// Package handlers contains the gin HTTP handlers for the device-key
// gated leads API, the admin surface and the operational endpoints.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"leadcheck/internal/classifier"
	"leadcheck/internal/metrics"
	"leadcheck/internal/models"
	"leadcheck/internal/result"
	"leadcheck/internal/task"
)

// Store is the slice of the repository the handlers depend on.
type Store interface {
	CreateDeviceKey() (*models.DeviceKey, error)
	VerifyDeviceKey(key string) (bool, error)
	GetAllDeviceKeys() ([]models.DeviceKey, error)
	UpdateDeviceKeyStatus(id uint, status models.DeviceKeyStatus) (*models.DeviceKey, error)
	DeleteDeviceKey(id uint) error
	GetFreshLeadsByTask(taskID string) ([]string, error)
	GetFreshLeadsByDateRange(from, to time.Time) ([]string, error)
	GetStats() (*models.StatsResponse, error)
	SaveTaskRecord(t task.Task) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry   *task.Registry
	classifier *classifier.Classifier
	results    *result.Store
	store      Store
	metrics    *metrics.Metrics
	db         *gorm.DB

	maxUploadMB int
	adminToken  string
}

// NewHandlers creates new HTTP handlers
func NewHandlers(registry *task.Registry, c *classifier.Classifier, results *result.Store, store Store, m *metrics.Metrics, db *gorm.DB, maxUploadMB int, adminToken string) *Handlers {
	return &Handlers{
		registry:    registry,
		classifier:  c,
		results:     results,
		store:       store,
		metrics:     m,
		db:          db,
		maxUploadMB: maxUploadMB,
		adminToken:  adminToken,
	}
}

// SetupRoutes registers all routes on the router
func (h *Handlers) SetupRoutes(r *gin.Engine) {
	r.POST("/auth/verify-key", h.VerifyKey)

	leads := r.Group("/leads")
	leads.Use(h.deviceKeyRequired())
	{
		leads.POST("/upload", h.UploadLeads)
		leads.GET("/task-status/:task_id", h.TaskStatus)
		leads.GET("/download-result/:task_id", h.DownloadResult)
	}

	admin := r.Group("/admin")
	admin.Use(h.adminRequired())
	{
		admin.POST("/generate-key", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PATCH("/keys/:id", h.UpdateKey)
		admin.DELETE("/keys/:id", h.DeleteKey)
		admin.GET("/leads-by-date", h.LeadsByDate)
		admin.GET("/stats", h.Stats)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
