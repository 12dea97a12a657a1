package model

import "time"

// NotificationType enumerates the events that produce notifications
type NotificationType string

const (
	NotifTaskAssigned      NotificationType = "task_assigned"
	NotifTaskCompleted     NotificationType = "task_completed"
	NotifTaskDueSoon       NotificationType = "task_due_soon"
	NotifTaskOverdue       NotificationType = "task_overdue"
	NotifProjectInvitation NotificationType = "project_invitation"
	NotifProjectUpdate     NotificationType = "project_update"
	NotifCommentAdded      NotificationType = "comment_added"
	NotifSystemAlert       NotificationType = "system_alert"
)

// NotificationStatus is either unread or read
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// AllNotificationTypes lists every type, used to build default preference rows
var AllNotificationTypes = []NotificationType{
	NotifTaskAssigned,
	NotifTaskCompleted,
	NotifTaskDueSoon,
	NotifTaskOverdue,
	NotifProjectInvitation,
	NotifProjectUpdate,
	NotifCommentAdded,
	NotifSystemAlert,
}

// Notification is the durable record of an event delivered to a user.
// The realtime websocket push is best-effort only; this row is the source
// of truth.
type Notification struct {
	ID        uint                   `json:"id" gorm:"primaryKey"`
	UserID    uint                   `json:"user_id" gorm:"index;not null"`
	TenantID  uint                   `json:"tenant_id" gorm:"index;not null"`
	Title     string                 `json:"title" gorm:"type:varchar(255);not null"`
	Message   string                 `json:"message" gorm:"type:text"`
	Type      NotificationType       `json:"type" gorm:"type:varchar(50);not null"`
	Status    NotificationStatus     `json:"status" gorm:"type:varchar(10);default:'unread'"`
	Data      map[string]interface{} `json:"data,omitempty" gorm:"type:jsonb;serializer:json"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationPreferences holds one row per (user, tenant): a toggle for each
// channel crossed with each notification type. Created lazily with all-true
// defaults the first time it is read or updated.
type NotificationPreferences struct {
	ID        uint                      `json:"id" gorm:"primaryKey"`
	UserID    uint                      `json:"user_id" gorm:"uniqueIndex:idx_notification_prefs_user_tenant;not null"`
	TenantID  uint                      `json:"tenant_id" gorm:"uniqueIndex:idx_notification_prefs_user_tenant;not null"`
	Email     map[NotificationType]bool `json:"email" gorm:"type:jsonb;serializer:json"`
	Push      map[NotificationType]bool `json:"push" gorm:"type:jsonb;serializer:json"`
	InApp     map[NotificationType]bool `json:"in_app" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// DefaultNotificationPreferences builds the all-true default row
func DefaultNotificationPreferences(userID, tenantID uint) NotificationPreferences {
	allOn := func() map[NotificationType]bool {
		m := make(map[NotificationType]bool, len(AllNotificationTypes))
		for _, t := range AllNotificationTypes {
			m[t] = true
		}
		return m
	}
	return NotificationPreferences{
		UserID:   userID,
		TenantID: tenantID,
		Email:    allOn(),
		Push:     allOn(),
		InApp:    allOn(),
	}
}
