package model

import "time"

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// MemberRole is a user's role within a project
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleViewer MemberRole = "viewer"
)

// Project is created atomically with its owner membership row; the owner
// membership can never be removed. Progress is computed at read time from the
// project's tasks and never stored.
type Project struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Status      ProjectStatus   `json:"status" gorm:"type:varchar(20);default:'planning'"`
	TenantID    uint            `json:"tenant_id" gorm:"index;not null"`
	OwnerID     uint            `json:"owner_id" gorm:"index;not null"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Tags        []string        `json:"tags" gorm:"type:jsonb;serializer:json"`
	Budget      *float64        `json:"budget,omitempty"`
	Progress    float64         `json:"progress" gorm:"-"`
	Members     []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProjectMember associates a user with a project. Unique per (project, user);
// role owner is assigned only at project creation to the initiating user.
type ProjectMember struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ProjectID   uint       `json:"project_id" gorm:"uniqueIndex:idx_project_members_project_user;not null"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex:idx_project_members_project_user;index;not null"`
	Role        MemberRole `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	Permissions []string   `json:"permissions" gorm:"type:jsonb;serializer:json"`
	JoinedAt    time.Time  `json:"joined_at" gorm:"autoCreateTime"`
}
