// Package models defines the persisted records and the HTTP request and
// response shapes of the API.
package models

import (
	"time"
)

// DeviceKeyStatus is the activation state of a device key.
type DeviceKeyStatus string

const (
	DeviceKeyActive   DeviceKeyStatus = "active"
	DeviceKeyInactive DeviceKeyStatus = "inactive"
)

// DeviceKey gates access to the upload, status and download endpoints.
type DeviceKey struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Key       string          `json:"key" gorm:"type:varchar(64);not null;uniqueIndex"`
	Status    DeviceKeyStatus `json:"status" gorm:"type:varchar(16);not null;default:active;index"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for DeviceKey
func (DeviceKey) TableName() string {
	return "device_keys"
}

// FreshLead is an uploaded address that was absent from the leak corpus,
// retained for the admin date-range export.
type FreshLead struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"type:varchar(320);not null"`
	Source    string    `json:"source" gorm:"type:varchar(255)"`
	TaskID    string    `json:"task_id" gorm:"type:varchar(36);not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for FreshLead
func (FreshLead) TableName() string {
	return "fresh_leads"
}

// TaskRecord is the persisted trace of a task, written at creation and on
// the terminal transition. The in-memory registry remains the live view
// for polling; these rows power /admin/stats across restarts.
type TaskRecord struct {
	ID             uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	TaskID         string     `json:"task_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	Status         string     `json:"status" gorm:"type:varchar(16);not null;index"`
	Filename       string     `json:"filename" gorm:"type:varchar(255)"`
	TotalEmails    int        `json:"total_emails"`
	ProcessedCount int        `json:"processed_count"`
	LeakedCount    int        `json:"leaked_count"`
	FreshCount     int        `json:"fresh_count"`
	InvalidCount   int        `json:"invalid_count"`
	ErrorMessage   string     `json:"error_message" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// TableName specifies the table name for TaskRecord
func (TaskRecord) TableName() string {
	return "tasks"
}
