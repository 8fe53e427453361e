package query

import (
	"context"
	"errors"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

// ListSessionProductsQuery represents the query to list the scans of a session
type ListSessionProductsQuery struct {
	SessionID      string
	OrganizationID string
	Limit          int
	Offset         int
}

// ListSessionProductsHandler handles list session products query
type ListSessionProductsHandler struct {
	sessions domain.SessionRepository
	products domain.ScannedProductRepository
}

// NewListSessionProductsHandler creates a new list session products handler
func NewListSessionProductsHandler(sessions domain.SessionRepository, products domain.ScannedProductRepository) *ListSessionProductsHandler {
	return &ListSessionProductsHandler{sessions: sessions, products: products}
}

// Handle executes the list session products query
func (h *ListSessionProductsHandler) Handle(ctx context.Context, query ListSessionProductsQuery) ([]domain.ScannedProduct, error) {
	if _, err := loadOwnedSession(ctx, h.sessions, query.SessionID, query.OrganizationID); err != nil {
		return nil, err
	}

	query.Limit, query.Offset = normalizePage(query.Limit, query.Offset)
	products, err := h.products.ListBySession(ctx, query.SessionID, query.Limit, query.Offset)
	if err != nil {
		return nil, domain.Persistence("list scanned products", err)
	}
	return products, nil
}

// loadOwnedSession hides sessions of other organizations as not found
func loadOwnedSession(ctx context.Context, repo domain.SessionRepository, sessionID, organizationID string) (*domain.InventorySession, error) {
	session, err := repo.FindByID(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, domain.Persistence("load session", err)
	}
	if session.OrganizationID != organizationID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
