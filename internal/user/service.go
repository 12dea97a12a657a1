package user

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
)

// Service owns tenant-scoped user records
type Service struct {
	db *gorm.DB
}

// NewService creates a user service on the injected connection pool
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput is the payload for user creation
type CreateInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// UpdateInput is a partial user update
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Role      *string
	Status    *string
	Password  *string
}

// Create inserts a user with a bcrypt-hashed password. Email must be unique
// within the tenant.
func (s *Service) Create(ctx context.Context, in CreateInput, tenantID uint) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = "member"
	}

	user := model.User{
		Email:     in.Email,
		TenantID:  tenantID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashed),
		Role:      role,
		Status:    "active",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}
	return &user, nil
}

// Get fetches one tenant-scoped user
func (s *Service) Get(ctx context.Context, id, tenantID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns a page of tenant-scoped users
func (s *Service) List(ctx context.Context, tenantID uint, page, limit int) ([]model.User, int64, error) {
	db := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := db.Limit(limit).Offset((page - 1) * limit).Order("id").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update applies a partial update; a new password is re-hashed
func (s *Service) Update(ctx context.Context, id, tenantID uint, in UpdateInput) (*model.User, error) {
	updates := map[string]interface{}{}
	if in.FirstName != nil {
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		updates["last_name"] = *in.LastName
	}
	if in.Role != nil {
		updates["role"] = *in.Role
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hashed)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&model.User{}).
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

// Delete hard-deletes a tenant-scoped user
func (s *Service) Delete(ctx context.Context, id, tenantID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
