package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
)

// Service owns tasks. The tenant scope always comes from the request's
// tenant header, never from the body, so a task's tenant_id matches its
// parent project's by construction.
type Service struct {
	db *gorm.DB
}

// NewService creates a task service on the injected connection pool
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput is the payload for task creation
type CreateInput struct {
	Title          string
	Description    string
	Priority       model.TaskPriority
	AssigneeID     *uint
	ProjectID      uint
	DueDate        *time.Time
	Tags           []string
	EstimatedHours *float64
	ParentTaskID   *uint
}

// UpdateInput is a partial task update
type UpdateInput struct {
	Title          *string
	Description    *string
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	AssigneeID     *uint
	DueDate        *time.Time
	Tags           []string
	EstimatedHours *float64
	ActualHours    *float64
}

// ListFilter narrows task listing
type ListFilter struct {
	ProjectID    *uint
	Status       model.TaskStatus
	Priority     model.TaskPriority
	AssigneeID   *uint
	ParentTaskID *uint
}

// Create inserts a task with status forced to todo and priority defaulting
// to medium. The parent project must exist under the caller's tenant.
func (s *Service) Create(ctx context.Context, in CreateInput, tenantID, createdBy uint) (*model.Task, error) {
	db := s.db.WithContext(ctx)

	var count int64
	err := db.Model(&model.Project{}).
		Where("id = ? AND tenant_id = ?", in.ProjectID, tenantID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.ErrNotFound
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	task := model.Task{
		Title:          in.Title,
		Description:    in.Description,
		Status:         model.TaskStatusTodo,
		Priority:       priority,
		AssigneeID:     in.AssigneeID,
		ProjectID:      in.ProjectID,
		TenantID:       tenantID,
		DueDate:        in.DueDate,
		Tags:           in.Tags,
		EstimatedHours: in.EstimatedHours,
		ParentTaskID:   in.ParentTaskID,
		CreatedBy:      createdBy,
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Get fetches one tenant-scoped task
func (s *Service) Get(ctx context.Context, id, tenantID uint) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// List returns a filtered page of tenant-scoped tasks
func (s *Service) List(ctx context.Context, tenantID uint, filter ListFilter, page, limit int) ([]model.Task, int64, error) {
	db := s.db.WithContext(ctx).Model(&model.Task{}).Where("tenant_id = ?", tenantID)

	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}
	if filter.AssigneeID != nil {
		db = db.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.ParentTaskID != nil {
		db = db.Where("parent_task_id = ?", *filter.ParentTaskID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.Task
	if err := db.Limit(limit).Offset((page - 1) * limit).Order("id").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update applies a partial update to a tenant-scoped task
func (s *Service) Update(ctx context.Context, id, tenantID uint, in UpdateInput) (*model.Task, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.AssigneeID != nil {
		updates["assignee_id"] = *in.AssigneeID
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}
	if in.Tags != nil {
		raw, _ := json.Marshal(in.Tags)
		updates["tags"] = string(raw)
	}
	if in.EstimatedHours != nil {
		updates["estimated_hours"] = *in.EstimatedHours
	}
	if in.ActualHours != nil {
		updates["actual_hours"] = *in.ActualHours
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&model.Task{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, apperr.ErrNotFound
		}
	}

	return s.Get(ctx, id, tenantID)
}

// Delete hard-deletes a tenant-scoped task
func (s *Service) Delete(ctx context.Context, id, tenantID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
