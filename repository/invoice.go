package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/bipagem/models"
)

// invoiceStore implements InvoiceStore
type invoiceStore struct {
	db *gorm.DB
}

// NewInvoiceStore creates a new received-invoice store
func NewInvoiceStore(db *gorm.DB) InvoiceStore {
	return &invoiceStore{db: db}
}

// IsInvoiceReceived checks the received invoices index
func (s *invoiceStore) IsInvoiceReceived(ctx context.Context, invoiceNumber string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.ReceivedInvoice{}).
		Where("invoice_number = ?", invoiceNumber).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up received invoice: %w", err)
	}
	return count > 0, nil
}

// RecordReceivedInvoice stores a receiving confirmation. It reports false
// when the invoice was already known.
func (s *invoiceStore) RecordReceivedInvoice(ctx context.Context, invoice *models.ReceivedInvoice) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(invoice)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record received invoice: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
