package domain

import (
	"context"
	"time"
)

// SessionStatus is the lifecycle state of an inventory session
type SessionStatus string

// Session statuses. Only active sessions accept scans.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// InventorySession groups the products scanned during one counting run
type InventorySession struct {
	ID             string        `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string        `json:"name" gorm:"not null"`
	OrganizationID string        `json:"organization_id" gorm:"type:uuid;not null;index:idx_sessions_org_created,priority:1"`
	CreatedBy      string        `json:"created_by" gorm:"type:uuid;not null"`
	Status         SessionStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt      time.Time     `json:"created_at" gorm:"index:idx_sessions_org_created,priority:2,sort:desc"`
}

// TableName specifies the table name
func (InventorySession) TableName() string {
	return "inventory_sessions"
}

// IsActive reports whether the session accepts scans
func (s *InventorySession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// SessionNameFor derives the display name of a session created at t
func SessionNameFor(t time.Time) string {
	return "Inventory " + t.Format("2006-01-02")
}

// SessionRepository defines the contract for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *InventorySession) error
	FindByID(ctx context.Context, id string) (*InventorySession, error)
	// FindLatestActive returns the most recently created active session of the
	// organization, or ErrSessionNotFound.
	FindLatestActive(ctx context.Context, organizationID string) (*InventorySession, error)
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]InventorySession, error)
	CountActive(ctx context.Context, organizationID string) (int64, error)
}

// SessionLocker serializes find-or-create of the active session per
// organization. The returned func releases the lock.
type SessionLocker interface {
	Lock(ctx context.Context, organizationID string) (unlock func(), err error)
}
