package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/internal/plan"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
)

// Service provisions and manages tenants. Creation and plan changes always
// derive quotas and the feature list from the plan, inside one transaction,
// so a tenant's quotas are never stale relative to its plan.
type Service struct {
	db *gorm.DB
}

// NewService creates a tenant service on the injected connection pool
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput is the payload for tenant provisioning
type CreateInput struct {
	Name      string
	Domain    string
	Subdomain *string
	OwnerID   uint
	Plan      model.PlanTier
	Settings  map[string]json.RawMessage
}

// UpdateInput is a partial tenant update. Nil fields are left untouched.
// Explicit quota fields allow admin overrides after provisioning.
type UpdateInput struct {
	Name        *string
	Domain      *string
	Subdomain   *string
	Status      *model.TenantStatus
	Plan        *model.PlanTier
	Settings    map[string]json.RawMessage
	MaxUsers    *int
	MaxProjects *int
	MaxStorage  *int
	Features    []string
}

// Create provisions a tenant: plan defaults merged with caller settings
// overrides (caller wins per top-level key), quotas computed from the plan,
// status forced to pending. One transaction; a failed insert leaves nothing
// behind.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Tenant, error) {
	tier := in.Plan
	if tier == "" {
		tier = model.PlanFree
	}

	settings, err := MergeSettings(plan.DefaultSettings(tier), in.Settings)
	if err != nil {
		return nil, fmt.Errorf("invalid settings overrides: %w", err)
	}

	limits := plan.LimitsFor(tier)
	tenant := model.Tenant{
		Name:        in.Name,
		Domain:      in.Domain,
		Subdomain:   in.Subdomain,
		Status:      model.TenantStatusPending,
		Plan:        tier,
		Settings:    settings,
		OwnerID:     in.OwnerID,
		MaxUsers:    limits.MaxUsers,
		MaxProjects: limits.MaxProjects,
		MaxStorage:  limits.MaxStorage,
		Features:    limits.Features,
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&tenant).Error; err != nil {
		tx.Rollback()
		if isDuplicate(err) {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &tenant, nil
}

// Update applies a partial update. A plan change rewrites quotas and features
// in the same statement; a settings change shallow-merges top-level keys over
// the stored document.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*model.Tenant, error) {
	db := s.db.WithContext(ctx)

	var existing model.Tenant
	if err := db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Domain != nil {
		updates["domain"] = *in.Domain
	}
	if in.Subdomain != nil {
		updates["subdomain"] = *in.Subdomain
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Plan != nil {
		limits := plan.LimitsFor(*in.Plan)
		features, err := json.Marshal(limits.Features)
		if err != nil {
			return nil, err
		}
		updates["plan"] = *in.Plan
		updates["max_users"] = limits.MaxUsers
		updates["max_projects"] = limits.MaxProjects
		updates["max_storage"] = limits.MaxStorage
		updates["features"] = string(features)
	}
	if in.Settings != nil {
		merged, err := MergeSettings(existing.Settings, in.Settings)
		if err != nil {
			return nil, fmt.Errorf("invalid settings overrides: %w", err)
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, err
		}
		updates["settings"] = string(raw)
	}

	// Explicit quota overrides win over plan-derived values
	if in.MaxUsers != nil {
		updates["max_users"] = *in.MaxUsers
	}
	if in.MaxProjects != nil {
		updates["max_projects"] = *in.MaxProjects
	}
	if in.MaxStorage != nil {
		updates["max_storage"] = *in.MaxStorage
	}
	if in.Features != nil {
		raw, err := json.Marshal(in.Features)
		if err != nil {
			return nil, err
		}
		updates["features"] = string(raw)
	}

	if len(updates) > 0 {
		result := db.Model(&model.Tenant{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			if isDuplicate(result.Error) {
				return nil, apperr.ErrConflict
			}
			return nil, result.Error
		}
	}

	var updated model.Tenant
	if err := db.First(&updated, id).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpgradePlan changes the plan; quotas and features follow automatically
func (s *Service) UpgradePlan(ctx context.Context, id uint, tier model.PlanTier) (*model.Tenant, error) {
	return s.Update(ctx, id, UpdateInput{Plan: &tier})
}

// Activate transitions a tenant to active
func (s *Service) Activate(ctx context.Context, id uint) (*model.Tenant, error) {
	status := model.TenantStatusActive
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// Suspend transitions a tenant to suspended
func (s *Service) Suspend(ctx context.Context, id uint) (*model.Tenant, error) {
	status := model.TenantStatusSuspended
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// Delete soft-deletes the tenant: status becomes cancelled, the row is kept
// forever. Idempotent; deleting an already-cancelled tenant succeeds. This is
// the only non-destructive delete in the data model, a product decision every
// other entity does not share.
func (s *Service) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("id = ?", id).
		Update("status", model.TenantStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Get fetches one tenant by id
func (s *Service) Get(ctx context.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// List returns a page of tenants, optionally filtered by status
func (s *Service) List(ctx context.Context, status model.TenantStatus, page, limit int) ([]model.Tenant, int64, error) {
	db := s.db.WithContext(ctx).Model(&model.Tenant{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tenants []model.Tenant
	if err := db.Limit(limit).Offset((page - 1) * limit).Order("id").Find(&tenants).Error; err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// MergeSettings overlays partial settings onto base, replacing whole top-level
// keys. This is a shallow merge: sending {theme:{primary_color:"#000"}}
// replaces the entire theme object and leaves every other key untouched.
func MergeSettings(base model.TenantSettings, overrides map[string]json.RawMessage) (model.TenantSettings, error) {
	if len(overrides) == 0 {
		return base, nil
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return base, err
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return base, err
	}

	for key, value := range overrides {
		doc[key] = value
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return base, err
	}

	var out model.TenantSettings
	if err := json.Unmarshal(merged, &out); err != nil {
		return base, err
	}
	return out, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key")
}
