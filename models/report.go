package models

import (
	"time"
)

// Report is a finalized report row
type Report struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ReportID       string       `gorm:"uniqueIndex;size:36" json:"report_id"`
	Name           string       `gorm:"size:255" json:"name"`
	Collaborators  []byte       `json:"collaborators"`
	Date           string       `gorm:"index;size:10" json:"date"`
	Shift          string       `gorm:"size:1" json:"shift"`
	Area           string       `gorm:"index;size:32" json:"area"`
	SessionKey     string       `gorm:"index;size:255" json:"session_key"`
	NoteCount      int          `json:"note_count"`
	TotalVolume    int          `json:"total_volume"`
	Status         string       `gorm:"index;size:32" json:"status"`
	Version        int          `json:"version"`
	FinalizedAt    time.Time    `gorm:"index" json:"finalized_at"`
	StatusChangeAt *time.Time   `json:"status_change_at"`
	ArchiveObject  *string      `gorm:"size:255" json:"archive_object"`
	Notes          []ReportNote `gorm:"foreignKey:ReportID;references:ReportID" json:"notes"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ReportNote is a frozen note of a finalized report
type ReportNote struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ReportID      string `gorm:"index;size:36" json:"report_id"`
	Position      int    `json:"position"`
	InvoiceNumber string `gorm:"index;size:64" json:"invoice_number"`
	Line          []byte `json:"line"`
}

// ReceivedInvoice is an invoice confirmed by the receiving stage
type ReceivedInvoice struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"uniqueIndex;size:64" json:"invoice_number"`
	Source        string    `gorm:"size:64" json:"source"`
	ReportID      *string   `gorm:"size:36" json:"report_id"`
	Volume        int       `json:"volume"`
	ReceivedAt    time.Time `json:"received_at"`
	CreatedAt     time.Time `json:"created_at"`
}
