package models

import (
	"time"

	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TaskModel is the persistence model for queued background tasks.
type TaskModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name        string            `gorm:"type:varchar(100);not null;index"`
	Args        []byte            `gorm:"type:jsonb;not null"`
	Status      shared.TaskStatus `gorm:"type:varchar(20);default:'PENDING';index:idx_task_status_created,priority:1"`
	RetryCount  int               `gorm:"not null"`
	MaxRetries  int               `gorm:"not null"`
	LastError   string            `gorm:"type:text"`
	NextRunAt   *time.Time        `gorm:"index:idx_task_next_run"`
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;index:idx_task_status_created,priority:2"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a domain Task
func (m *TaskModel) ToDomain() *shared.Task {
	return &shared.Task{
		ID:          m.ID,
		Name:        m.Name,
		Args:        m.Args,
		Status:      m.Status,
		RetryCount:  m.RetryCount,
		MaxRetries:  m.MaxRetries,
		LastError:   m.LastError,
		NextRunAt:   m.NextRunAt,
		ProcessedAt: m.ProcessedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Task
func (m *TaskModel) FromDomain(t *shared.Task) {
	m.ID = t.ID
	m.Name = t.Name
	m.Args = t.Args
	m.Status = t.Status
	m.RetryCount = t.RetryCount
	m.MaxRetries = t.MaxRetries
	m.LastError = t.LastError
	m.NextRunAt = t.NextRunAt
	m.ProcessedAt = t.ProcessedAt
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}

// TaskModelFromDomain creates a new persistence model from a domain Task
func TaskModelFromDomain(t *shared.Task) *TaskModel {
	m := &TaskModel{}
	m.FromDomain(t)
	return m
}
