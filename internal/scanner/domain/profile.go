package domain

import (
	"context"
	"time"
)

// Role types
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Profile is a user of the collector and its organization membership
type Profile struct {
	ID             string     `json:"id" gorm:"type:uuid;primaryKey"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	FullName       string     `json:"full_name" gorm:"not null"`
	PasswordHash   string     `json:"-" gorm:"not null"`
	Role           string     `json:"role" gorm:"type:varchar(20);not null;default:'operator'"`
	OrganizationID string     `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Profile) TableName() string {
	return "profiles"
}

// IsAdmin checks if the profile has the admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOperator
}

// ProfileRepository defines the contract for profile data access
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	FindByID(ctx context.Context, id string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]Profile, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// Caller is the authenticated identity the workflow acts for
type Caller struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// IsAdmin checks if the caller has the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
