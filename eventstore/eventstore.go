package eventstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"example.com/backstage/services/bipagem/domain"
)

// ErrConcurrentModification is returned when another writer appended to the aggregate first
var ErrConcurrentModification = errors.New("aggregate was modified concurrently")

// EventStore is the interface for event storage
type EventStore interface {
	// Save saves an aggregate's events to the store
	Save(ctx context.Context, aggregate domain.Aggregate) error

	// Append writes an aggregate's events inside a caller-owned transaction
	Append(tx *gorm.DB, aggregate domain.Aggregate) error

	// Load loads an aggregate from the store
	Load(ctx context.Context, aggregate domain.Aggregate) error

	// Exists checks if an aggregate exists
	Exists(ctx context.Context, aggregateID string) (bool, error)

	// GetEvents gets all events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]domain.Event, error)

	// GetUnprocessedEvents gets the oldest unprocessed events
	GetUnprocessedEvents(ctx context.Context, limit int) ([]domain.Event, error)

	// MarkEventAsProcessed marks an event as processed
	MarkEventAsProcessed(ctx context.Context, eventID string) error

	// MarkEventAsFailed records a processing failure so the event is retried
	MarkEventAsFailed(ctx context.Context, eventID string, cause error) error
}
