package kafka

import "time"

// ProductScannedEvent is published once per committed scan
type ProductScannedEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	ScanID         string    `json:"scan_id"`
	SessionID      string    `json:"session_id"`
	OrganizationID string    `json:"organization_id"`
	Barcode        string    `json:"barcode"`
	Quantity       int       `json:"quantity"`
	ScannedBy      string    `json:"scanned_by"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductScanned = "product.scanned"
)

// Kafka topics
const (
	TopicProductScanned = "product-scanned"
)
