package domain

import (
	"time"
)

// Aggregate types
const (
	CartAggregateType   = "cart"
	ReportAggregateType = "report"
)

// EventType constants
const (
	// Cart events
	CartCreated        = "V1_CART_CREATED"
	CartLineAdded      = "V1_CART_LINE_ADDED"
	CartLineRemoved    = "V1_CART_LINE_REMOVED"
	CartReviewStarted  = "V1_CART_REVIEW_STARTED"
	CartScanFinalized  = "V1_CART_SCAN_FINALIZED"
	CartPackingStarted = "V1_CART_PACKING_STARTED"
	CartCompletedEv    = "V1_CART_COMPLETED"
	CartUnpacked       = "V1_CART_UNPACKED"
	CartActivated      = "V1_CART_ACTIVATED"
	CartDeactivated    = "V1_CART_DEACTIVATED"

	// Report events
	ReportFinalizedEv     = "V1_REPORT_FINALIZED"
	ReportStatusChangedEv = "V1_REPORT_STATUS_CHANGED"
)

// Event represents a domain event
type Event struct {
	ID            string      `json:"id"`
	AggregateID   string      `json:"aggregate_id"`
	AggregateType string      `json:"aggregate_type"`
	Type          string      `json:"type"`
	Version       int         `json:"version"`
	Timestamp     time.Time   `json:"timestamp"`
	Data          interface{} `json:"data"`
}

// CartCreatedEvent opens a new cart in a session
type CartCreatedEvent struct {
	CartID     string    `json:"cart_id"`
	SessionKey string    `json:"session_key"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// CartLineAddedEvent records a scanned line
type CartLineAddedEvent struct {
	Line ScannedLine `json:"line"`
}

// CartLineRemovedEvent removes a line by id
type CartLineRemovedEvent struct {
	LineID    string    `json:"line_id"`
	RemovedBy Role      `json:"removed_by"`
	RemovedAt time.Time `json:"removed_at"`
}

// CartReviewStartedEvent marks taping done
type CartReviewStartedEvent struct {
	At time.Time `json:"at"`
}

// CartScanFinalizedEvent releases the cart for packing
type CartScanFinalizedEvent struct {
	ValidLines int       `json:"valid_lines"`
	Volume     int       `json:"volume"`
	At         time.Time `json:"at"`
}

// PackingRecord is emitted to the packing tracking store when packing starts
type PackingRecord struct {
	CartID           string    `json:"cart_id"`
	CartName         string    `json:"cart_name"`
	SessionKey       string    `json:"session_key"`
	FinalDestination string    `json:"destino_final"`
	Invoices         []string  `json:"notas"`
	LineCount        int       `json:"quantidade_notas"`
	Volume           int       `json:"volumes"`
	StartedAt        time.Time `json:"iniciado_em"`
}

// CartPackingStartedEvent moves a released cart into packing
type CartPackingStartedEvent struct {
	Record PackingRecord `json:"record"`
}

// CartCompletedEvent closes packing
type CartCompletedEvent struct {
	At time.Time `json:"at"`
}

// CartUnpackedEvent is the admin reversal back to released
type CartUnpackedEvent struct {
	From CartStatus `json:"from"`
	At   time.Time  `json:"at"`
}

// CartActivatedEvent marks the cart as the session's active cart
type CartActivatedEvent struct {
	At time.Time `json:"at"`
}

// CartDeactivatedEvent clears the active flag
type CartDeactivatedEvent struct {
	At time.Time `json:"at"`
}

// ReportFinalizedEvent carries a finalized report to projections and downstream consumers
type ReportFinalizedEvent struct {
	Report Report `json:"report"`
}

// ReportStatusChangedEvent records a downstream status change
type ReportStatusChangedEvent struct {
	ReportID string       `json:"report_id"`
	From     ReportStatus `json:"from"`
	To       ReportStatus `json:"to"`
	At       time.Time    `json:"at"`
}
