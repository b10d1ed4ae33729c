package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AggregateBase provides common aggregate functionality
type AggregateBase struct {
	id            string
	aggregateType string
	version       int
	events        []Event
	applier       func(event interface{}) error
}

// Aggregate is the interface for all aggregates
type Aggregate interface {
	GetID() string
	GetType() string
	GetVersion() int
	GetEvents() []Event
	ClearEvents()
	Apply(event interface{}) error
}

// NewAggregateBase creates a new aggregate base
func NewAggregateBase(aggregateType string, applier func(interface{}) error) *AggregateBase {
	return &AggregateBase{
		id:            uuid.New().String(),
		aggregateType: aggregateType,
		events:        []Event{},
		applier:       applier,
	}
}

// GetID returns the aggregate ID
func (a *AggregateBase) GetID() string {
	return a.id
}

// SetID sets the aggregate ID
func (a *AggregateBase) SetID(id string) {
	a.id = id
}

// SetVersion sets the version of an aggregate restored from a snapshot
func (a *AggregateBase) SetVersion(version int) {
	a.version = version
}

// GetType returns the aggregate type
func (a *AggregateBase) GetType() string {
	return a.aggregateType
}

// GetVersion returns the aggregate version
func (a *AggregateBase) GetVersion() int {
	return a.version
}

// GetEvents returns the uncommitted events
func (a *AggregateBase) GetEvents() []Event {
	return a.events
}

// ClearEvents clears the uncommitted events
func (a *AggregateBase) ClearEvents() {
	a.events = []Event{}
}

// Apply applies an event to the aggregate and records it as uncommitted
func (a *AggregateBase) Apply(event interface{}) error {
	if a.applier == nil {
		return fmt.Errorf("applier is not set")
	}

	eventType, err := EventTypeOf(event)
	if err != nil {
		return err
	}

	if err := a.applier(event); err != nil {
		return fmt.Errorf("failed to apply event: %w", err)
	}

	a.events = append(a.events, Event{
		ID:            uuid.New().String(),
		AggregateID:   a.id,
		AggregateType: a.aggregateType,
		Type:          eventType,
		Version:       a.version + 1,
		Timestamp:     time.Now().UTC(),
		Data:          event,
	})
	a.version++

	return nil
}

// EventTypeOf maps an event struct to its stored type name
func EventTypeOf(event interface{}) (string, error) {
	switch event.(type) {
	// Cart events
	case CartCreatedEvent:
		return CartCreated, nil
	case CartLineAddedEvent:
		return CartLineAdded, nil
	case CartLineRemovedEvent:
		return CartLineRemoved, nil
	case CartReviewStartedEvent:
		return CartReviewStarted, nil
	case CartScanFinalizedEvent:
		return CartScanFinalized, nil
	case CartPackingStartedEvent:
		return CartPackingStarted, nil
	case CartCompletedEvent:
		return CartCompletedEv, nil
	case CartUnpackedEvent:
		return CartUnpacked, nil
	case CartActivatedEvent:
		return CartActivated, nil
	case CartDeactivatedEvent:
		return CartDeactivated, nil

	// Report events
	case ReportFinalizedEvent:
		return ReportFinalizedEv, nil
	case ReportStatusChangedEvent:
		return ReportStatusChangedEv, nil
	}
	return "", fmt.Errorf("unknown event type: %T", event)
}

// DecodeEventData unmarshals stored event data into its event struct, used when replaying
func DecodeEventData(eventType string, data []byte) (interface{}, error) {
	switch eventType {
	case CartCreated:
		return decode[CartCreatedEvent](data)
	case CartLineAdded:
		return decode[CartLineAddedEvent](data)
	case CartLineRemoved:
		return decode[CartLineRemovedEvent](data)
	case CartReviewStarted:
		return decode[CartReviewStartedEvent](data)
	case CartScanFinalized:
		return decode[CartScanFinalizedEvent](data)
	case CartPackingStarted:
		return decode[CartPackingStartedEvent](data)
	case CartCompletedEv:
		return decode[CartCompletedEvent](data)
	case CartUnpacked:
		return decode[CartUnpackedEvent](data)
	case CartActivated:
		return decode[CartActivatedEvent](data)
	case CartDeactivated:
		return decode[CartDeactivatedEvent](data)
	case ReportFinalizedEv:
		return decode[ReportFinalizedEvent](data)
	case ReportStatusChangedEv:
		return decode[ReportStatusChangedEvent](data)
	}
	return nil, fmt.Errorf("unknown event type: %s", eventType)
}

func decode[T any](data []byte) (interface{}, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}
	return v, nil
}
