package query

import (
	"context"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

// ListOperatorsQuery represents a query to list the profiles of an organization
type ListOperatorsQuery struct {
	OrganizationID string
	Limit          int
	Offset         int
}

// ListOperatorsHandler handles list operators query
type ListOperatorsHandler struct {
	repo domain.ProfileRepository
}

// NewListOperatorsHandler creates a new list operators handler
func NewListOperatorsHandler(repo domain.ProfileRepository) *ListOperatorsHandler {
	return &ListOperatorsHandler{repo: repo}
}

// Handle executes the query
func (h *ListOperatorsHandler) Handle(ctx context.Context, query ListOperatorsQuery) ([]domain.Profile, error) {
	limit, offset := normalizePage(query.Limit, query.Offset)
	profiles, err := h.repo.ListByOrganization(ctx, query.OrganizationID, limit, offset)
	if err != nil {
		return nil, domain.Persistence("list operators", err)
	}
	return profiles, nil
}
