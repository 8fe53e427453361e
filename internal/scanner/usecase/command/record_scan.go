package command

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/kafka"
	"github.com/tair/inventory-scanner/pkg/logger"
)

// ScanPublisher announces committed scans
type ScanPublisher interface {
	PublishProductScanned(ctx context.Context, event kafka.ProductScannedEvent) error
}

// RecordScanCommand represents the command to record one scanned product
type RecordScanCommand struct {
	SessionID      string
	OrganizationID string
	Barcode        string
	Quantity       int
	Notes          string
	ScannedBy      string
}

// RecordScanHandler handles record scan command
type RecordScanHandler struct {
	repo      domain.ScannedProductRepository
	publisher ScanPublisher
	now       func() time.Time
}

// NewRecordScanHandler creates a new record scan handler. publisher may be nil.
func NewRecordScanHandler(repo domain.ScannedProductRepository, publisher ScanPublisher) *RecordScanHandler {
	return &RecordScanHandler{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the record scan command
func (h *RecordScanHandler) Handle(ctx context.Context, cmd RecordScanCommand) (*domain.ScannedProduct, error) {
	barcode := strings.TrimSpace(cmd.Barcode)

	var missing []string
	if cmd.SessionID == "" {
		missing = append(missing, "session")
	}
	if barcode == "" {
		missing = append(missing, "barcode")
	}
	if cmd.ScannedBy == "" {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		return nil, &domain.IncompleteInputError{Fields: missing}
	}

	quantity := cmd.Quantity
	if quantity < domain.MinQuantity {
		quantity = domain.MinQuantity
	}

	product := &domain.ScannedProduct{
		ID:        uuid.NewString(),
		SessionID: cmd.SessionID,
		Barcode:   barcode,
		Quantity:  quantity,
		Notes:     cmd.Notes,
		ScannedBy: cmd.ScannedBy,
		CreatedAt: h.now(),
	}

	if err := h.repo.Create(ctx, product); err != nil {
		return nil, domain.Persistence("record scanned product", err)
	}

	if h.publisher != nil {
		event := kafka.ProductScannedEvent{
			ScanID:         product.ID,
			SessionID:      product.SessionID,
			OrganizationID: cmd.OrganizationID,
			Barcode:        product.Barcode,
			Quantity:       product.Quantity,
			ScannedBy:      product.ScannedBy,
			Timestamp:      product.CreatedAt,
		}
		if err := h.publisher.PublishProductScanned(ctx, event); err != nil {
			// The row is stored. Only the report projection misses this scan.
			logger.Error(ctx).
				Err(err).
				Str("scan_id", product.ID).
				Str("session_id", product.SessionID).
				Msg("Failed to publish product scanned event")
		}
	}

	return product, nil
}
