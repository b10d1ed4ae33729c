package models

import (
	"time"

	"gorm.io/gorm"
)

// Event represents a domain event in the database
type Event struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	EventID       string         `gorm:"uniqueIndex;size:36" json:"event_id"`
	AggregateID   string         `gorm:"uniqueIndex:idx_events_aggregate_version;size:64" json:"aggregate_id"`
	AggregateType string         `gorm:"index;size:32" json:"aggregate_type"`
	EventType     string         `gorm:"size:64" json:"event_type"`
	Data          []byte         `json:"data"`
	Metadata      []byte         `json:"metadata"`
	Version       int            `gorm:"uniqueIndex:idx_events_aggregate_version" json:"version"`
	Timestamp     time.Time      `gorm:"index" json:"timestamp"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Error         *string        `json:"error"`
	Attempts      int            `json:"attempts"`
	Processed     bool           `gorm:"index" json:"processed"`
}
