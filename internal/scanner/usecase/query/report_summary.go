package query

import (
	"context"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/repository"
)

// ReportReader reads the aggregates maintained from scan events
type ReportReader interface {
	Totals(ctx context.Context, organizationID string) (repository.ReportTotals, error)
	TopOperators(ctx context.Context, organizationID string, n int) ([]repository.OperatorTotal, error)
}

// ReportSummaryQuery represents the query for an organization's report
type ReportSummaryQuery struct {
	OrganizationID string
	TopOperators   int
}

// ReportSummary is the organization dashboard
type ReportSummary struct {
	Totals         repository.ReportTotals    `json:"totals"`
	ActiveSessions int64                      `json:"active_sessions"`
	ScansToday     int64                      `json:"scans_today"`
	TopOperators   []repository.OperatorTotal `json:"top_operators"`
}

// ReportSummaryHandler handles report summary query
type ReportSummaryHandler struct {
	sessions domain.SessionRepository
	products domain.ScannedProductRepository
	reports  ReportReader
	now      func() time.Time
}

// NewReportSummaryHandler creates a new report summary handler. Without a
// report reader the event-fed totals stay empty.
func NewReportSummaryHandler(sessions domain.SessionRepository, products domain.ScannedProductRepository, reports ReportReader) *ReportSummaryHandler {
	return &ReportSummaryHandler{
		sessions: sessions,
		products: products,
		reports:  reports,
		now:      time.Now,
	}
}

// Handle executes the report summary query
func (h *ReportSummaryHandler) Handle(ctx context.Context, query ReportSummaryQuery) (*ReportSummary, error) {
	if query.TopOperators <= 0 {
		query.TopOperators = 5
	}

	summary := &ReportSummary{TopOperators: []repository.OperatorTotal{}}

	active, err := h.sessions.CountActive(ctx, query.OrganizationID)
	if err != nil {
		return nil, domain.Persistence("count active sessions", err)
	}
	summary.ActiveSessions = active

	now := h.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := h.products.CountByOrganization(ctx, query.OrganizationID, startOfDay)
	if err != nil {
		return nil, domain.Persistence("count scans", err)
	}
	summary.ScansToday = today

	if h.reports == nil {
		return summary, nil
	}

	totals, err := h.reports.Totals(ctx, query.OrganizationID)
	if err != nil {
		return nil, domain.Persistence("read report totals", err)
	}
	summary.Totals = totals

	top, err := h.reports.TopOperators(ctx, query.OrganizationID, query.TopOperators)
	if err != nil {
		return nil, domain.Persistence("read top operators", err)
	}
	if top != nil {
		summary.TopOperators = top
	}
	return summary, nil
}
