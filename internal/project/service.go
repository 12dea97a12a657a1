package project

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
)

var (
	ownerPermissions         = []string{"*"}
	defaultMemberPermissions = []string{"read", "write"}
)

// Service owns projects and their memberships. A project and its owner
// membership row are created in one transaction and the owner membership can
// never be removed; those two invariants rely on transactional atomicity, not
// in-process locking.
type Service struct {
	db *gorm.DB
}

// NewService creates a project service on the injected connection pool
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput is the payload for project creation
type CreateInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Tags        []string
	Budget      *float64
	Members     []uint
}

// UpdateInput is a partial project update
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *model.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Tags        []string
	Budget      *float64
}

// Create inserts the project (status forced to planning), its owner
// membership and one member row per extra member, all in one transaction.
// Extra members are deduplicated against the owner and each other. On any
// failure the whole transaction rolls back; no project ever exists without
// its owner membership. Returns the fully assembled project re-read after
// commit.
func (s *Service) Create(ctx context.Context, in CreateInput, tenantID, ownerID uint) (*model.Project, error) {
	proj := model.Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      model.ProjectStatusPlanning,
		TenantID:    tenantID,
		OwnerID:     ownerID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Tags:        in.Tags,
		Budget:      in.Budget,
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&proj).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	owner := model.ProjectMember{
		ProjectID:   proj.ID,
		UserID:      ownerID,
		Role:        model.RoleOwner,
		Permissions: ownerPermissions,
	}
	if err := tx.Create(&owner).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, userID := range dedupMembers(in.Members, ownerID) {
		member := model.ProjectMember{
			ProjectID:   proj.ID,
			UserID:      userID,
			Role:        model.RoleMember,
			Permissions: defaultMemberPermissions,
		}
		if err := tx.Create(&member).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.Get(ctx, proj.ID, tenantID)
}

// Get fetches one tenant-scoped project with members and computed progress
func (s *Service) Get(ctx context.Context, id, tenantID uint) (*model.Project, error) {
	db := s.db.WithContext(ctx)

	var proj model.Project
	err := db.Preload("Members").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&proj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	progress, err := s.progress(ctx, proj.ID, tenantID)
	if err != nil {
		return nil, err
	}
	proj.Progress = progress

	return &proj, nil
}

// List returns a page of tenant-scoped projects, each with members and
// computed progress, optionally filtered by status
func (s *Service) List(ctx context.Context, tenantID uint, status model.ProjectStatus, page, limit int) ([]model.Project, int64, error) {
	db := s.db.WithContext(ctx).Model(&model.Project{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	err := db.Preload("Members").
		Limit(limit).Offset((page - 1) * limit).Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range projects {
		progress, err := s.progress(ctx, projects[i].ID, tenantID)
		if err != nil {
			return nil, 0, err
		}
		projects[i].Progress = progress
	}

	return projects, total, nil
}

// Update applies a partial update to a tenant-scoped project
func (s *Service) Update(ctx context.Context, id, tenantID uint, in UpdateInput) (*model.Project, error) {
	db := s.db.WithContext(ctx)

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.StartDate != nil {
		updates["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		updates["end_date"] = *in.EndDate
	}
	if in.Tags != nil {
		updates["tags"] = marshalJSON(in.Tags)
	}
	if in.Budget != nil {
		updates["budget"] = *in.Budget
	}

	if len(updates) > 0 {
		result := db.Model(&model.Project{}).
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

// Delete removes all membership rows then the project row in one
// transaction. Existence is decided by the affected-row count of the project
// delete, not a pre-read.
func (s *Service) Delete(ctx context.Context, id, tenantID uint) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Where("project_id = ?", id).Delete(&model.ProjectMember{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	result := tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Project{})
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return apperr.ErrNotFound
	}

	return tx.Commit().Error
}

// AddMember adds a user to an existing, tenant-matching project
func (s *Service) AddMember(ctx context.Context, projectID, tenantID, userID uint, role model.MemberRole, permissions []string) (*model.ProjectMember, error) {
	if _, err := s.Get(ctx, projectID, tenantID); err != nil {
		return nil, err
	}

	if role == "" || role == model.RoleOwner {
		role = model.RoleMember
	}
	if permissions == nil {
		permissions = defaultMemberPermissions
	}

	member := model.ProjectMember{
		ProjectID:   projectID,
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}
	return &member, nil
}

// UpdateMember changes a member's role and permissions
func (s *Service) UpdateMember(ctx context.Context, projectID, tenantID, userID uint, role model.MemberRole, permissions []string) error {
	if _, err := s.Get(ctx, projectID, tenantID); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if role != "" && role != model.RoleOwner {
		updates["role"] = role
	}
	if permissions != nil {
		updates["permissions"] = marshalJSON(permissions)
	}
	if len(updates) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&model.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RemoveMember deletes a membership row. Removing the row whose user id
// equals the project's owner_id is refused before any delete executes,
// regardless of the role stored on the row.
func (s *Service) RemoveMember(ctx context.Context, projectID, tenantID, userID uint) error {
	db := s.db.WithContext(ctx)

	var proj model.Project
	err := db.Where("id = ? AND tenant_id = ?", projectID, tenantID).First(&proj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	if proj.OwnerID == userID {
		return apperr.ErrProtectedOwner
	}

	result := db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// progress computes the done-task percentage for a project at read time
func (s *Service) progress(ctx context.Context, projectID, tenantID uint) (float64, error) {
	db := s.db.WithContext(ctx).Model(&model.Task{})

	var total int64
	err := db.Session(&gorm.Session{}).
		Where("project_id = ? AND tenant_id = ?", projectID, tenantID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	var done int64
	err = db.Session(&gorm.Session{}).
		Where("project_id = ? AND tenant_id = ? AND status = ?", projectID, tenantID, model.TaskStatusDone).
		Count(&done).Error
	if err != nil {
		return 0, err
	}

	return computeProgress(done, total), nil
}

// computeProgress is 100*done/total with a zero-task project defined as 0
func computeProgress(done, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(done) / float64(total)
}

// marshalJSON renders a value as the jsonb column text for map-based updates
func marshalJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// dedupMembers drops the owner and repeated ids from the extra-member list,
// preserving order
func dedupMembers(members []uint, ownerID uint) []uint {
	seen := map[uint]bool{ownerID: true}
	out := make([]uint, 0, len(members))
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
