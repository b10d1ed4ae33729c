package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/models"
)

// GormEventStore implements EventStore using GORM
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new GORM event store
func NewGormEventStore(db *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db}
}

// Save saves an aggregate's events to the store
func (s *GormEventStore) Save(ctx context.Context, aggregate domain.Aggregate) error {
	if len(aggregate.GetEvents()) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Append(tx, aggregate)
	})
}

// Append writes the uncommitted events and clears them from the aggregate.
// The stored version must match the version the events were produced from.
func (s *GormEventStore) Append(tx *gorm.DB, aggregate domain.Aggregate) error {
	events := aggregate.GetEvents()
	if len(events) == 0 {
		return nil
	}

	var current int
	if err := tx.Model(&models.Event{}).
		Where("aggregate_id = ?", aggregate.GetID()).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error; err != nil {
		return fmt.Errorf("failed to read aggregate version: %w", err)
	}
	if expected := events[0].Version - 1; current != expected {
		return fmt.Errorf("%w: %s at version %d, expected %d",
			ErrConcurrentModification, aggregate.GetID(), current, expected)
	}

	for _, event := range events {
		data, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}

		dbEvent := models.Event{
			EventID:       event.ID,
			AggregateID:   event.AggregateID,
			AggregateType: event.AggregateType,
			EventType:     event.Type,
			Data:          data,
			Version:       event.Version,
			Timestamp:     event.Timestamp,
		}

		if err := tx.Create(&dbEvent).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s version %d", ErrConcurrentModification, event.AggregateID, event.Version)
			}
			return fmt.Errorf("failed to save event: %w", err)
		}

		log.Debug().
			Str("aggregateID", event.AggregateID).
			Str("eventType", event.Type).
			Int("version", event.Version).
			Msg("Event saved")
	}

	aggregate.ClearEvents()
	return nil
}

// Load replays the stored events into the aggregate
func (s *GormEventStore) Load(ctx context.Context, aggregate domain.Aggregate) error {
	aggregateID := aggregate.GetID()
	if aggregateID == "" {
		return fmt.Errorf("aggregate ID is empty")
	}

	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("version ASC").
		Find(&dbEvents).Error; err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	for _, dbEvent := range dbEvents {
		eventData, err := domain.DecodeEventData(dbEvent.EventType, dbEvent.Data)
		if err != nil {
			return err
		}
		if err := aggregate.Apply(eventData); err != nil {
			return fmt.Errorf("failed to apply event: %w", err)
		}
	}

	aggregate.ClearEvents()
	return nil
}

// Exists checks if an aggregate exists
func (s *GormEventStore) Exists(ctx context.Context, aggregateID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("aggregate_id = ?", aggregateID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check if aggregate exists: %w", err)
	}

	return count > 0, nil
}

// GetEvents gets all events for an aggregate with their decoded data
func (s *GormEventStore) GetEvents(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("version ASC").
		Find(&dbEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	return toDomainEvents(dbEvents)
}

// GetUnprocessedEvents gets the oldest unprocessed events with their decoded data
func (s *GormEventStore) GetUnprocessedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&dbEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to get unprocessed events: %w", err)
	}

	return toDomainEvents(dbEvents)
}

// MarkEventAsProcessed marks an event as processed
func (s *GormEventStore) MarkEventAsProcessed(ctx context.Context, eventID string) error {
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"processed":  true,
			"error":      nil,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}

	return nil
}

// MarkEventAsFailed stores the failure and bumps the attempt counter
func (s *GormEventStore) MarkEventAsFailed(ctx context.Context, eventID string, cause error) error {
	msg := cause.Error()
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"error":      &msg,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}

	return nil
}

func toDomainEvents(dbEvents []models.Event) ([]domain.Event, error) {
	events := make([]domain.Event, len(dbEvents))
	for i, dbEvent := range dbEvents {
		data, err := domain.DecodeEventData(dbEvent.EventType, dbEvent.Data)
		if err != nil {
			return nil, err
		}
		events[i] = domain.Event{
			ID:            dbEvent.EventID,
			AggregateID:   dbEvent.AggregateID,
			AggregateType: dbEvent.AggregateType,
			Type:          dbEvent.EventType,
			Version:       dbEvent.Version,
			Timestamp:     dbEvent.Timestamp,
			Data:          data,
		}
	}
	return events, nil
}
