package notification

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
)

// Service persists notifications and pushes them to the hub. The row is
// always written first; the websocket push happens after commit and its
// failure never fails the request.
type Service struct {
	db  *gorm.DB
	hub *Hub
}

// NewService creates the notification service
func NewService(db *gorm.DB, hub *Hub) *Service {
	return &Service{db: db, hub: hub}
}

// CreateInput is the payload for notification creation
type CreateInput struct {
	UserID    uint
	Title     string
	Message   string
	Type      model.NotificationType
	Data      map[string]interface{}
	ExpiresAt *time.Time
}

// Create stores a notification and, if the user's push preference for the
// type allows it, pushes it to every open connection
func (s *Service) Create(ctx context.Context, in CreateInput, tenantID uint) (*model.Notification, error) {
	notif := model.Notification{
		UserID:    in.UserID,
		TenantID:  tenantID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		Status:    model.NotificationUnread,
		Data:      in.Data,
		ExpiresAt: in.ExpiresAt,
	}
	if err := s.db.WithContext(ctx).Create(&notif).Error; err != nil {
		return nil, err
	}

	if s.pushAllowed(ctx, in.UserID, tenantID, in.Type) {
		s.hub.Push(in.UserID, Event{
			Type:      "new_notification",
			Data:      notif,
			Timestamp: time.Now().UTC(),
		})
	}

	return &notif, nil
}

// ListFilter narrows a notification listing
type ListFilter struct {
	Status *model.NotificationStatus
	Type   *model.NotificationType
}

// List returns a page of the user's notifications, newest first
func (s *Service) List(ctx context.Context, userID, tenantID uint, filter ListFilter, page, limit int) ([]model.Notification, int64, error) {
	db := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID)
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifs []model.Notification
	if err := db.Limit(limit).Offset((page - 1) * limit).Order("created_at DESC").Find(&notifs).Error; err != nil {
		return nil, 0, err
	}
	return notifs, total, nil
}

// UnreadCount returns how many unread notifications the user has
func (s *Service) UnreadCount(ctx context.Context, userID, tenantID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND tenant_id = ? AND status = ?", userID, tenantID, model.NotificationUnread).
		Count(&count).Error
	return count, err
}

// MarkRead flips one notification to read and stamps read_at. Marking an
// already-read notification is not an error.
func (s *Service) MarkRead(ctx context.Context, id, userID, tenantID uint) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND tenant_id = ?", id, userID, tenantID).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the user to read and
// returns how many rows changed
func (s *Service) MarkAllRead(ctx context.Context, userID, tenantID uint) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND tenant_id = ? AND status = ?", userID, tenantID, model.NotificationUnread).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": now,
		})
	return result.RowsAffected, result.Error
}

// Delete removes one notification owned by the user
func (s *Service) Delete(ctx context.Context, id, userID, tenantID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND tenant_id = ?", id, userID, tenantID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// GetPreferences returns the user's preference row, falling back to the
// all-true defaults when none exists yet. The read path never writes.
func (s *Service) GetPreferences(ctx context.Context, userID, tenantID uint) (*model.NotificationPreferences, error) {
	var prefs model.NotificationPreferences
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := model.DefaultNotificationPreferences(userID, tenantID)
			return &defaults, nil
		}
		return nil, err
	}
	return &prefs, nil
}

// PreferencesInput is a partial preferences update; nil channels keep their
// current toggles
type PreferencesInput struct {
	Email map[model.NotificationType]bool
	Push  map[model.NotificationType]bool
	InApp map[model.NotificationType]bool
}

// UpdatePreferences creates the row with defaults on first update, then
// overwrites the channels present in the input
func (s *Service) UpdatePreferences(ctx context.Context, userID, tenantID uint, in PreferencesInput) (*model.NotificationPreferences, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	var prefs model.NotificationPreferences
	err := tx.Where("user_id = ? AND tenant_id = ?", userID, tenantID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = model.DefaultNotificationPreferences(userID, tenantID)
		if err := tx.Create(&prefs).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if in.Email != nil {
		prefs.Email = in.Email
	}
	if in.Push != nil {
		prefs.Push = in.Push
	}
	if in.InApp != nil {
		prefs.InApp = in.InApp
	}

	if err := tx.Save(&prefs).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &prefs, nil
}

// pushAllowed reports whether the push channel is enabled for the type.
// Missing preference rows and unknown types default to enabled. Lookup
// failures allow the push; the durable row already exists either way.
func (s *Service) pushAllowed(ctx context.Context, userID, tenantID uint, typ model.NotificationType) bool {
	var prefs model.NotificationPreferences
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&prefs).Error
	if err != nil {
		return true
	}
	enabled, ok := prefs.Push[typ]
	if !ok {
		return true
	}
	return enabled
}
