package model

import "time"

// TaskStatus represents the workflow state of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority represents task urgency
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task belongs to a project and a tenant. The tenant id is always taken from
// the request's tenant header, never from client input, so it matches the
// parent project's tenant by construction.
type Task struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	Title          string       `json:"title" gorm:"type:varchar(255);not null"`
	Description    string       `json:"description" gorm:"type:text"`
	Status         TaskStatus   `json:"status" gorm:"type:varchar(20);default:'todo'"`
	Priority       TaskPriority `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	AssigneeID     *uint        `json:"assignee_id,omitempty" gorm:"index"`
	ProjectID      uint         `json:"project_id" gorm:"index;not null"`
	TenantID       uint         `json:"tenant_id" gorm:"index;not null"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	Tags           []string     `json:"tags" gorm:"type:jsonb;serializer:json"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ActualHours    *float64     `json:"actual_hours,omitempty"`
	ParentTaskID   *uint        `json:"parent_task_id,omitempty" gorm:"index"`
	CreatedBy      uint         `json:"created_by" gorm:"not null"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
