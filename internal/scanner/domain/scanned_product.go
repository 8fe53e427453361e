package domain

import (
	"context"
	"time"
)

// MinQuantity is the floor for every scanned quantity
const MinQuantity = 1

// ScannedProduct is one committed scan inside a session
type ScannedProduct struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:uuid;not null;index"`
	Barcode   string    `json:"barcode" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null;check:chk_scanned_products_quantity,quantity >= 1"`
	Notes     string    `json:"notes,omitempty"`
	ScannedBy string    `json:"scanned_by" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (ScannedProduct) TableName() string {
	return "scanned_products"
}

// SessionStats aggregates the scans of one session
type SessionStats struct {
	SessionID string `json:"session_id"`
	Products  int64  `json:"products"`
	Units     int64  `json:"units"`
	Operators int64  `json:"operators"`
}

// ScannedProductRepository defines the contract for scanned product data access
type ScannedProductRepository interface {
	Create(ctx context.Context, product *ScannedProduct) error
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]ScannedProduct, error)
	StatsBySessions(ctx context.Context, sessionIDs []string) (map[string]SessionStats, error)
	CountByOrganization(ctx context.Context, organizationID string, since time.Time) (int64, error)
}
