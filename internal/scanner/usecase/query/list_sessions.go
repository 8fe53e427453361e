package query

import (
	"context"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

// ListSessionsQuery represents the query to list an organization's sessions
type ListSessionsQuery struct {
	OrganizationID string
	Limit          int
	Offset         int
}

// SessionSummary is a session with its scan totals
type SessionSummary struct {
	domain.InventorySession
	Products  int64 `json:"products"`
	Units     int64 `json:"units"`
	Operators int64 `json:"operators"`
}

// ListSessionsHandler handles list sessions query
type ListSessionsHandler struct {
	sessions domain.SessionRepository
	products domain.ScannedProductRepository
}

// NewListSessionsHandler creates a new list sessions handler
func NewListSessionsHandler(sessions domain.SessionRepository, products domain.ScannedProductRepository) *ListSessionsHandler {
	return &ListSessionsHandler{sessions: sessions, products: products}
}

// Handle executes the list sessions query
func (h *ListSessionsHandler) Handle(ctx context.Context, query ListSessionsQuery) ([]SessionSummary, error) {
	query.Limit, query.Offset = normalizePage(query.Limit, query.Offset)

	sessions, err := h.sessions.ListByOrganization(ctx, query.OrganizationID, query.Limit, query.Offset)
	if err != nil {
		return nil, domain.Persistence("list sessions", err)
	}

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	stats, err := h.products.StatsBySessions(ctx, ids)
	if err != nil {
		return nil, domain.Persistence("load session stats", err)
	}

	out := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		st := stats[s.ID]
		out[i] = SessionSummary{
			InventorySession: s,
			Products:         st.Products,
			Units:            st.Units,
			Operators:        st.Operators,
		}
	}
	return out, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
