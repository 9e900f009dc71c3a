// Package repository wraps all application database access: device keys,
// persisted fresh leads and task records. The leak corpus itself is not
// reached through here; see internal/corpus.
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadcheck/internal/models"
	"leadcheck/internal/task"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ---- device keys ----

// CreateDeviceKey generates and persists a new active device key.
func (r *Repository) CreateDeviceKey() (*models.DeviceKey, error) {
	key := models.DeviceKey{
		Key:       uuid.New().String(),
		Status:    models.DeviceKeyActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.Create(&key).Error; err != nil {
		return nil, fmt.Errorf("failed to create device key: %w", err)
	}
	return &key, nil
}

// VerifyDeviceKey reports whether the key exists and is active.
func (r *Repository) VerifyDeviceKey(key string) (bool, error) {
	var dk models.DeviceKey
	result := r.db.Where("`key` = ? AND status = ?", key, models.DeviceKeyActive).First(&dk)
	if result.Error == nil {
		return true, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("database error verifying device key: %w", result.Error)
}

// GetAllDeviceKeys returns every device key, newest first.
func (r *Repository) GetAllDeviceKeys() ([]models.DeviceKey, error) {
	var keys []models.DeviceKey
	if err := r.db.Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to get device keys: %w", err)
	}
	return keys, nil
}

// UpdateDeviceKeyStatus flips a key between active and inactive. Returns
// gorm.ErrRecordNotFound for an unknown id.
func (r *Repository) UpdateDeviceKeyStatus(id uint, status models.DeviceKeyStatus) (*models.DeviceKey, error) {
	var key models.DeviceKey
	if err := r.db.First(&key, id).Error; err != nil {
		return nil, err
	}
	key.Status = status
	if err := r.db.Save(&key).Error; err != nil {
		return nil, fmt.Errorf("failed to update device key: %w", err)
	}
	return &key, nil
}

// DeleteDeviceKey removes a key. Returns gorm.ErrRecordNotFound for an
// unknown id.
func (r *Repository) DeleteDeviceKey(id uint) error {
	result := r.db.Delete(&models.DeviceKey{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete device key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ---- fresh leads ----

// SaveFreshLeads persists the fresh partition of a completed task in bulk.
func (r *Repository) SaveFreshLeads(taskID, source string, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	now := time.Now().UTC()
	leads := make([]models.FreshLead, 0, len(emails))
	for _, e := range emails {
		leads = append(leads, models.FreshLead{
			Email:     e,
			Source:    source,
			TaskID:    taskID,
			CreatedAt: now,
		})
	}
	if err := r.db.CreateInBatches(leads, 500).Error; err != nil {
		return fmt.Errorf("failed to save fresh leads: %w", err)
	}
	return nil
}

// GetFreshLeadsByTask returns the fresh addresses of one task in insertion
// order. Used to regenerate a missing result artifact.
func (r *Repository) GetFreshLeadsByTask(taskID string) ([]string, error) {
	var emails []string
	err := r.db.Model(&models.FreshLead{}).
		Where("task_id = ?", taskID).
		Order("id ASC").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get fresh leads for task: %w", err)
	}
	return emails, nil
}

// GetFreshLeadsByDateRange returns fresh addresses collected in the range,
// oldest first.
func (r *Repository) GetFreshLeadsByDateRange(from, to time.Time) ([]string, error) {
	var emails []string
	err := r.db.Model(&models.FreshLead{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get fresh leads by date range: %w", err)
	}
	return emails, nil
}

// ---- task records ----

// SaveTaskRecord writes or refreshes the persisted trace of a task.
func (r *Repository) SaveTaskRecord(t task.Task) error {
	record := models.TaskRecord{
		TaskID:         t.ID,
		Status:         string(t.Status),
		Filename:       t.Filename,
		TotalEmails:    t.TotalEmails,
		ProcessedCount: t.ProcessedCount,
		LeakedCount:    t.LeakedCount,
		FreshCount:     t.FreshCount,
		InvalidCount:   t.InvalidCount,
		ErrorMessage:   t.ErrorMessage,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}

	var existing models.TaskRecord
	err := r.db.Where("task_id = ?", t.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create task record: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("database error loading task record: %w", err)
	}

	record.ID = existing.ID
	if err := r.db.Save(&record).Error; err != nil {
		return fmt.Errorf("failed to update task record: %w", err)
	}
	return nil
}

// ---- stats ----

// GetStats aggregates the counts shown on the admin dashboard.
func (r *Repository) GetStats() (*models.StatsResponse, error) {
	var stats models.StatsResponse

	if err := r.db.Model(&models.DeviceKey{}).Count(&stats.DeviceKeys.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count device keys: %w", err)
	}
	if err := r.db.Model(&models.DeviceKey{}).
		Where("status = ?", models.DeviceKeyActive).
		Count(&stats.DeviceKeys.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active device keys: %w", err)
	}
	stats.DeviceKeys.Inactive = stats.DeviceKeys.Total - stats.DeviceKeys.Active

	if err := r.db.Model(&models.FreshLead{}).Count(&stats.FreshLeads.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count fresh leads: %w", err)
	}

	if err := r.db.Model(&models.TaskRecord{}).Count(&stats.Tasks.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	if err := r.db.Model(&models.TaskRecord{}).
		Where("status = ?", string(task.StatusCompleted)).
		Count(&stats.Tasks.Completed).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	return &stats, nil
}
