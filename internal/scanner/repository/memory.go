package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

// MemoryStore is an in-process implementation of the scanner repositories.
// It backs STORE_DRIVER=memory and the package tests of the service.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.InventorySession
	products map[string]domain.ScannedProduct
	profiles map[string]domain.Profile
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.InventorySession),
		products: make(map[string]domain.ScannedProduct),
		profiles: make(map[string]domain.Profile),
	}
}

// Sessions returns the session repository view of the store
func (s *MemoryStore) Sessions() domain.SessionRepository { return memorySessions{s} }

// Products returns the scanned product repository view of the store
func (s *MemoryStore) Products() domain.ScannedProductRepository { return memoryProducts{s} }

// Profiles returns the profile repository view of the store
func (s *MemoryStore) Profiles() domain.ProfileRepository { return memoryProfiles{s} }

type memorySessions struct{ s *MemoryStore }

func (m memorySessions) Create(ctx context.Context, session *domain.InventorySession) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if session.Status == domain.SessionStatusActive {
		for _, existing := range m.s.sessions {
			if existing.OrganizationID == session.OrganizationID && existing.IsActive() {
				return domain.ErrActiveSessionExists
			}
		}
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.s.sessions[session.ID] = *session
	return nil
}

func (m memorySessions) FindByID(ctx context.Context, id string) (*domain.InventorySession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	session, ok := m.s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (m memorySessions) FindLatestActive(ctx context.Context, organizationID string) (*domain.InventorySession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var latest *domain.InventorySession
	for _, session := range m.s.sessions {
		if session.OrganizationID != organizationID || !session.IsActive() {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			s := session
			latest = &s
		}
	}
	if latest == nil {
		return nil, domain.ErrSessionNotFound
	}
	return latest, nil
}

func (m memorySessions) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.InventorySession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []domain.InventorySession
	for _, session := range m.s.sessions {
		if session.OrganizationID == organizationID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (m memorySessions) CountActive(ctx context.Context, organizationID string) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var n int64
	for _, session := range m.s.sessions {
		if session.OrganizationID == organizationID && session.IsActive() {
			n++
		}
	}
	return n, nil
}

type memoryProducts struct{ s *MemoryStore }

func (m memoryProducts) Create(ctx context.Context, product *domain.ScannedProduct) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	m.s.products[product.ID] = *product
	return nil
}

func (m memoryProducts) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var n int64
	for _, p := range m.s.products {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m memoryProducts) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ScannedProduct, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []domain.ScannedProduct
	for _, p := range m.s.products {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (m memoryProducts) StatsBySessions(ctx context.Context, sessionIDs []string) (map[string]domain.SessionStats, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	wanted := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}

	stats := make(map[string]domain.SessionStats)
	operators := make(map[string]map[string]bool)
	for _, p := range m.s.products {
		if !wanted[p.SessionID] {
			continue
		}
		st := stats[p.SessionID]
		st.SessionID = p.SessionID
		st.Products++
		st.Units += int64(p.Quantity)
		if operators[p.SessionID] == nil {
			operators[p.SessionID] = make(map[string]bool)
		}
		operators[p.SessionID][p.ScannedBy] = true
		st.Operators = int64(len(operators[p.SessionID]))
		stats[p.SessionID] = st
	}
	return stats, nil
}

func (m memoryProducts) CountByOrganization(ctx context.Context, organizationID string, since time.Time) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var n int64
	for _, p := range m.s.products {
		session, ok := m.s.sessions[p.SessionID]
		if !ok || session.OrganizationID != organizationID || p.CreatedAt.Before(since) {
			continue
		}
		n++
	}
	return n, nil
}

type memoryProfiles struct{ s *MemoryStore }

func (m memoryProfiles) Create(ctx context.Context, profile *domain.Profile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.profiles {
		if strings.EqualFold(existing.Email, profile.Email) {
			return domain.ErrEmailTaken
		}
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	m.s.profiles[profile.ID] = *profile
	return nil
}

func (m memoryProfiles) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	profile, ok := m.s.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &profile, nil
}

func (m memoryProfiles) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, profile := range m.s.profiles {
		if strings.EqualFold(profile.Email, email) {
			p := profile
			return &p, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (m memoryProfiles) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.Profile, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []domain.Profile
	for _, profile := range m.s.profiles {
		if profile.OrganizationID == organizationID {
			out = append(out, profile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return page(out, limit, offset), nil
}

func (m memoryProfiles) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	profile, ok := m.s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	profile.LastLoginAt = &at
	m.s.profiles[id] = profile
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
