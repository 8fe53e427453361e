package query

import (
	"context"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

// CountScannedQuery represents the query to count the scans of a session
type CountScannedQuery struct {
	SessionID string
}

// CountScannedHandler handles count scanned query
type CountScannedHandler struct {
	repo domain.ScannedProductRepository
}

// NewCountScannedHandler creates a new count scanned handler
func NewCountScannedHandler(repo domain.ScannedProductRepository) *CountScannedHandler {
	return &CountScannedHandler{repo: repo}
}

// Handle executes the count scanned query
func (h *CountScannedHandler) Handle(ctx context.Context, query CountScannedQuery) (int64, error) {
	if query.SessionID == "" {
		return 0, domain.ErrSessionNotFound
	}

	count, err := h.repo.CountBySession(ctx, query.SessionID)
	if err != nil {
		return 0, domain.Persistence("count scanned products", err)
	}
	return count, nil
}
