package models

import (
	"time"
)

// Session stores the identity of a work session
type Session struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionKey    string    `gorm:"uniqueIndex;size:255" json:"session_key"`
	Collaborators []byte    `json:"collaborators"`
	Date          string    `gorm:"size:10" json:"date"`
	Shift         string    `gorm:"size:1" json:"shift"`
	Area          string    `gorm:"index;size:32" json:"area"`
	LoginAt       time.Time `json:"login_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SessionNote is one entry of a receiving session's working note list
type SessionNote struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	NoteID        string    `gorm:"uniqueIndex;size:36" json:"note_id"`
	SessionKey    string    `gorm:"index;size:255" json:"session_key"`
	Position      int       `json:"position"`
	InvoiceNumber string    `gorm:"index;size:64" json:"invoice_number"`
	Line          []byte    `json:"line"`
	CreatedAt     time.Time `json:"created_at"`
}
