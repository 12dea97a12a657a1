package model

import "time"

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusPending   TenantStatus = "pending"
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusCancelled TenantStatus = "cancelled"
)

// PlanTier represents the subscription plan of a tenant
type PlanTier string

const (
	PlanFree         PlanTier = "free"
	PlanBasic        PlanTier = "basic"
	PlanProfessional PlanTier = "professional"
	PlanEnterprise   PlanTier = "enterprise"
)

// Tenant represents an isolated customer organization. Quotas and the feature
// list are derived from the plan at creation and on every plan change; -1
// encodes "unlimited". A tenant is never hard-deleted: delete sets status to
// cancelled and retains the row, unlike every other entity in the schema.
type Tenant struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Domain      string         `json:"domain" gorm:"type:varchar(255);uniqueIndex;not null"`
	Subdomain   *string        `json:"subdomain,omitempty" gorm:"type:varchar(100);uniqueIndex"`
	Status      TenantStatus   `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Plan        PlanTier       `json:"plan" gorm:"type:varchar(20);default:'free'"`
	Settings    TenantSettings `json:"settings" gorm:"type:jsonb;serializer:json"`
	OwnerID     uint           `json:"owner_id" gorm:"index;not null"`
	MaxUsers    int            `json:"max_users"`
	MaxProjects int            `json:"max_projects"`
	MaxStorage  int            `json:"max_storage_gb"`
	Features    []string       `json:"features" gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TenantSettings is the nested settings document stored as jsonb.
// Partial updates replace whole top-level keys (shallow merge).
type TenantSettings struct {
	Theme         ThemeSettings        `json:"theme"`
	Features      FeatureToggles       `json:"features"`
	Notifications NotificationToggles  `json:"notifications"`
	Security      SecurityPolicy       `json:"security"`
	Integrations  IntegrationToggles   `json:"integrations"`
}

// ThemeSettings holds tenant branding
type ThemeSettings struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	LogoURL        string `json:"logo_url,omitempty"`
}

// FeatureToggles enables optional product features per tenant
type FeatureToggles struct {
	TimeTracking bool `json:"time_tracking"`
	Reporting    bool `json:"reporting"`
	Integrations bool `json:"integrations"`
	APIAccess    bool `json:"api_access"`
}

// NotificationToggles holds tenant-wide notification channel switches
type NotificationToggles struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	InApp bool `json:"in_app"`
}

// SecurityPolicy holds tenant security settings
type SecurityPolicy struct {
	PasswordMinLength int  `json:"password_min_length"`
	RequireMFA        bool `json:"require_mfa"`
	SessionTimeoutMin int  `json:"session_timeout_minutes"`
}

// IntegrationToggles enables third-party integrations per tenant
type IntegrationToggles struct {
	Slack   bool `json:"slack"`
	GitHub  bool `json:"github"`
	Webhook bool `json:"webhook"`
}
