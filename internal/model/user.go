package model

import "time"

// User represents a person within a tenant. Email is unique per tenant, not
// globally. The row stores at most one live refresh token; each successful
// refresh overwrites it, which invalidates the previous token.
type User struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"type:varchar(255);uniqueIndex:idx_users_tenant_email;not null"`
	TenantID            uint       `json:"tenant_id" gorm:"uniqueIndex:idx_users_tenant_email;index;not null"`
	FirstName           string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName            string     `json:"last_name" gorm:"type:varchar(100)"`
	Password            string     `json:"-" gorm:"type:varchar(255);not null"`
	Role                string     `json:"role" gorm:"type:varchar(50);default:'member'"`
	Status              string     `json:"status" gorm:"type:varchar(20);default:'active'"`
	RefreshToken        *string    `json:"-" gorm:"type:text"`
	ResetToken          *string    `json:"-" gorm:"type:varchar(255)"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
