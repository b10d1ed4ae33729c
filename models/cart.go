package models

import (
	"time"
)

// Cart is the current snapshot of a cart aggregate, written with its events
type Cart struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CartID           string    `gorm:"uniqueIndex;size:36" json:"cart_id"`
	SessionKey       string    `gorm:"uniqueIndex:idx_carts_session_name;size:255" json:"session_key"`
	Name             string    `gorm:"size:120" json:"name"`
	NameKey          string    `gorm:"uniqueIndex:idx_carts_session_name;size:120" json:"-"`
	Status           string    `gorm:"index;size:32" json:"status"`
	Active           bool      `json:"active"`
	FinalDestination string    `gorm:"size:120" json:"final_destination"`
	LineCount        int       `json:"line_count"`
	Volume           int       `json:"volume"`
	State            []byte    `json:"-"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PackingRecord is written when a cart starts packing
type PackingRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CartID           string    `gorm:"index;size:36" json:"cart_id"`
	CartName         string    `gorm:"size:120" json:"cart_name"`
	SessionKey       string    `gorm:"index;size:255" json:"session_key"`
	FinalDestination string    `gorm:"size:120" json:"final_destination"`
	Invoices         []byte    `json:"invoices"`
	LineCount        int       `json:"line_count"`
	Volume           int       `json:"volume"`
	StartedAt        time.Time `json:"started_at"`
	CreatedAt        time.Time `json:"created_at"`
}
