package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/database"
)

// activeSessionIndex enforces one active session per organization
const activeSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_inventory_sessions_active_org
ON inventory_sessions (organization_id) WHERE status = 'active'`

// AutoMigrate creates the scanner tables and indexes
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Profile{}, &domain.InventorySession{}, &domain.ScannedProduct{}); err != nil {
		return err
	}
	return db.Exec(activeSessionIndex).Error
}

type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context, session *domain.InventorySession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	if database.IsUniqueViolation(err) {
		return domain.ErrActiveSessionExists
	}
	return err
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id string) (*domain.InventorySession, error) {
	var session domain.InventorySession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	return &session, nil
}

func (r *GormSessionRepository) FindLatestActive(ctx context.Context, organizationID string) (*domain.InventorySession, error) {
	var session domain.InventorySession
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", organizationID, domain.SessionStatusActive).
		Order("created_at DESC").
		Limit(1).
		First(&session).Error
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	return &session, nil
}

func (r *GormSessionRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.InventorySession, error) {
	var sessions []domain.InventorySession
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error
	return sessions, err
}

func (r *GormSessionRepository) CountActive(ctx context.Context, organizationID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.InventorySession{}).
		Where("organization_id = ? AND status = ?", organizationID, domain.SessionStatusActive).
		Count(&count).Error
	return count, err
}

type GormScannedProductRepository struct {
	db *gorm.DB
}

func NewGormScannedProductRepository(db *gorm.DB) *GormScannedProductRepository {
	return &GormScannedProductRepository{db: db}
}

func (r *GormScannedProductRepository) Create(ctx context.Context, product *domain.ScannedProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormScannedProductRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ScannedProduct{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (r *GormScannedProductRepository) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ScannedProduct, error) {
	var products []domain.ScannedProduct
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	return products, err
}

func (r *GormScannedProductRepository) StatsBySessions(ctx context.Context, sessionIDs []string) (map[string]domain.SessionStats, error) {
	stats := make(map[string]domain.SessionStats, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return stats, nil
	}

	var rows []domain.SessionStats
	err := r.db.WithContext(ctx).
		Model(&domain.ScannedProduct{}).
		Select("session_id, COUNT(*) AS products, COALESCE(SUM(quantity), 0) AS units, COUNT(DISTINCT scanned_by) AS operators").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats[row.SessionID] = row
	}
	return stats, nil
}

func (r *GormScannedProductRepository) CountByOrganization(ctx context.Context, organizationID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ScannedProduct{}).
		Joins("JOIN inventory_sessions ON inventory_sessions.id = scanned_products.session_id").
		Where("inventory_sessions.organization_id = ? AND scanned_products.created_at >= ?", organizationID, since).
		Count(&count).Error
	return count, err
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).Create(profile).Error
	if database.IsUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *GormProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, notFound(err, domain.ErrProfileNotFound)
	}
	return &profile, nil
}

func (r *GormProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, notFound(err, domain.ErrProfileNotFound)
	}
	return &profile, nil
}

func (r *GormProfileRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.Profile, error) {
	var profiles []domain.Profile
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("full_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	return profiles, err
}

func (r *GormProfileRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
