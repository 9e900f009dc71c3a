package models

import "time"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// UploadResponse is returned by POST /leads/upload.
type UploadResponse struct {
	TaskID      string `json:"task_id"`
	Message     string `json:"message"`
	TotalEmails int    `json:"total_emails"`
}

// TaskStatusResponse is returned by GET /leads/task-status/:task_id.
type TaskStatusResponse struct {
	TaskID         string  `json:"task_id"`
	Status         string  `json:"status"`
	Progress       float64 `json:"progress"`
	TotalEmails    int     `json:"total_emails"`
	ProcessedCount int     `json:"processed_emails"`
	LeakedCount    int     `json:"leaked_count"`
	FreshCount     int     `json:"fresh_count"`
	Message        string  `json:"message"`
}

// VerifyKeyRequest is the body of POST /auth/verify-key.
type VerifyKeyRequest struct {
	DeviceKey string `json:"device_key" binding:"required"`
}

// VerifyKeyResponse is returned by POST /auth/verify-key.
type VerifyKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// DeviceKeyResponse is the admin-facing view of a device key.
type DeviceKeyResponse struct {
	ID        uint            `json:"id"`
	Key       string          `json:"key"`
	Status    DeviceKeyStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// DeviceKeyUpdateRequest is the body of PATCH /admin/keys/:id.
type DeviceKeyUpdateRequest struct {
	Status DeviceKeyStatus `json:"status" binding:"required,oneof=active inactive"`
}

// MessageResponse is a generic success body.
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// StatsResponse is returned by GET /admin/stats.
type StatsResponse struct {
	DeviceKeys StatsDeviceKeys `json:"device_keys"`
	FreshLeads StatsFreshLeads `json:"fresh_leads"`
	Tasks      StatsTasks      `json:"tasks"`
}

type StatsDeviceKeys struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

type StatsFreshLeads struct {
	Total int64 `json:"total"`
}

type StatsTasks struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics"`
}
