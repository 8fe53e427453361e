package query

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

const (
	exportSheet    = "Scans"
	exportPageSize = 500
)

// ExportSessionQuery represents the query to export a session as a spreadsheet
type ExportSessionQuery struct {
	SessionID      string
	OrganizationID string
}

// SessionExport is a rendered workbook ready to be written out
type SessionExport struct {
	Filename string
	Rows     int
	File     *excelize.File
}

// ExportSessionHandler handles export session query
type ExportSessionHandler struct {
	sessions domain.SessionRepository
	products domain.ScannedProductRepository
}

// NewExportSessionHandler creates a new export session handler
func NewExportSessionHandler(sessions domain.SessionRepository, products domain.ScannedProductRepository) *ExportSessionHandler {
	return &ExportSessionHandler{sessions: sessions, products: products}
}

// Handle executes the export session query
func (h *ExportSessionHandler) Handle(ctx context.Context, query ExportSessionQuery) (*SessionExport, error) {
	session, err := loadOwnedSession(ctx, h.sessions, query.SessionID, query.OrganizationID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	headers := []interface{}{"Barcode", "Quantity", "Notes", "Scanned By", "Scanned At"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for offset := 0; ; offset += exportPageSize {
		products, err := h.products.ListBySession(ctx, session.ID, exportPageSize, offset)
		if err != nil {
			f.Close()
			return nil, domain.Persistence("list scanned products", err)
		}

		for _, p := range products {
			values := []interface{}{p.Barcode, p.Quantity, p.Notes, p.ScannedBy, p.CreatedAt.UTC().Format(time.RFC3339)}
			if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}

		if len(products) < exportPageSize {
			break
		}
	}

	return &SessionExport{
		Filename: fmt.Sprintf("%s.xlsx", session.Name),
		Rows:     row - 2,
		File:     f,
	}, nil
}
