package models

import (
	"gorm.io/gorm"
)

// All lists every table managed by the service
func All() []interface{} {
	return []interface{}{
		&Event{},
		&Session{},
		&SessionNote{},
		&Cart{},
		&PackingRecord{},
		&Report{},
		&ReportNote{},
		&ReceivedInvoice{},
	}
}

// SetupModels runs the migrations for all tables
func SetupModels(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
