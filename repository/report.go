package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/bipagem/database"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/eventstore"
	"example.com/backstage/services/bipagem/models"
)

// ReceivedFromReport is the source recorded for invoices confirmed by a receiving report
const ReceivedFromReport = "report"

// reportStore implements ReportStore
type reportStore struct {
	db *gorm.DB
	es eventstore.EventStore
}

// NewReportStore creates a new report store
func NewReportStore(db *gorm.DB, es eventstore.EventStore) ReportStore {
	return &reportStore{db: db, es: es}
}

// AppendReport stores a freshly finalized report, clears the session's
// working notes and confirms the reported invoices as received, atomically
func (s *reportStore) AppendReport(ctx context.Context, aggregate *domain.ReportAggregate) error {
	report := aggregate.State
	row, err := toReportModel(report, aggregate.GetVersion())
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}

		if err := tx.Where("session_key = ?", report.SessionKey).Delete(&models.SessionNote{}).Error; err != nil {
			return fmt.Errorf("failed to clear notebook: %w", err)
		}

		if report.Area == domain.AreaReceiving {
			reportID := report.ID
			for _, note := range report.Notes {
				received := models.ReceivedInvoice{
					InvoiceNumber: note.InvoiceNumber,
					Source:        ReceivedFromReport,
					ReportID:      &reportID,
					Volume:        note.EffectiveVolume(),
					ReceivedAt:    report.FinalizedAt,
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&received).Error; err != nil {
					return fmt.Errorf("failed to record received invoice: %w", err)
				}
			}
		}

		return s.es.Append(tx, aggregate)
	})
}

// GetReport gets a report with its notes
func (s *reportStore) GetReport(ctx context.Context, reportID string) (*domain.ReportAggregate, error) {
	var row models.Report
	if err := s.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("report_id = ?", reportID).
		First(&row).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	report, err := toDomainReport(row)
	if err != nil {
		return nil, err
	}
	return domain.RestoreReport(report, row.Version), nil
}

// ListReports lists reports without their notes, newest first
func (s *reportStore) ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	query := s.db.WithContext(ctx).Model(&models.Report{})
	if filter.Area != "" {
		query = query.Where("area = ?", string(filter.Area))
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.Report
	if err := query.Order("finalized_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		report, err := toDomainReport(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// SaveReportStatus appends the status events and updates the stored row
func (s *reportStore) SaveReportStatus(ctx context.Context, aggregate *domain.ReportAggregate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.es.Append(tx, aggregate); err != nil {
			return err
		}

		result := tx.Model(&models.Report{}).
			Where("report_id = ?", aggregate.GetID()).
			Updates(map[string]interface{}{
				"status":           string(aggregate.State.Status),
				"status_change_at": aggregate.State.StatusChangeAt,
				"version":          aggregate.GetVersion(),
				"updated_at":       time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update report status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetArchiveObject records where the report spreadsheet was archived
func (s *reportStore) SetArchiveObject(ctx context.Context, reportID, object string) error {
	return s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("report_id = ?", reportID).
		Update("archive_object", object).Error
}

// FindReportedInvoice finds the earliest finalized report holding the invoice
func (s *reportStore) FindReportedInvoice(ctx context.Context, invoiceNumber string) (*domain.ReportedInvoice, error) {
	var row models.Report
	err := s.db.WithContext(ctx).
		Joins("JOIN report_notes ON report_notes.report_id = reports.report_id").
		Where("report_notes.invoice_number = ?", invoiceNumber).
		Order("reports.finalized_at ASC").
		First(&row).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up reported invoice: %w", err)
	}

	var collaborators []string
	if err := json.Unmarshal(row.Collaborators, &collaborators); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collaborators: %w", err)
	}
	return &domain.ReportedInvoice{
		InvoiceNumber: invoiceNumber,
		ReportID:      row.ReportID,
		ReportName:    row.Name,
		Collaborators: collaborators,
		FinalizedAt:   row.FinalizedAt,
	}, nil
}

func toReportModel(report domain.Report, version int) (*models.Report, error) {
	collaborators, err := json.Marshal(report.Collaborators)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collaborators: %w", err)
	}

	notes := make([]models.ReportNote, len(report.Notes))
	for i, note := range report.Notes {
		line, err := json.Marshal(note)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report note: %w", err)
		}
		notes[i] = models.ReportNote{
			ReportID:      report.ID,
			Position:      i,
			InvoiceNumber: note.InvoiceNumber,
			Line:          line,
		}
	}

	return &models.Report{
		ReportID:       report.ID,
		Name:           report.Name,
		Collaborators:  collaborators,
		Date:           report.Date,
		Shift:          string(report.Shift),
		Area:           string(report.Area),
		SessionKey:     report.SessionKey,
		NoteCount:      report.NoteCount,
		TotalVolume:    report.TotalVolume,
		Status:         string(report.Status),
		Version:        version,
		FinalizedAt:    report.FinalizedAt,
		StatusChangeAt: report.StatusChangeAt,
		Notes:          notes,
	}, nil
}

func toDomainReport(row models.Report) (domain.Report, error) {
	report := domain.Report{
		ID:             row.ReportID,
		Name:           row.Name,
		Date:           row.Date,
		Shift:          domain.Shift(row.Shift),
		Area:           domain.Area(row.Area),
		SessionKey:     row.SessionKey,
		NoteCount:      row.NoteCount,
		TotalVolume:    row.TotalVolume,
		FinalizedAt:    row.FinalizedAt,
		Status:         domain.ReportStatus(row.Status),
		StatusChangeAt: row.StatusChangeAt,
		Notes:          make([]domain.ScannedLine, 0, len(row.Notes)),
	}
	if err := json.Unmarshal(row.Collaborators, &report.Collaborators); err != nil {
		return domain.Report{}, fmt.Errorf("failed to unmarshal collaborators: %w", err)
	}
	for _, note := range row.Notes {
		var line domain.ScannedLine
		if err := json.Unmarshal(note.Line, &line); err != nil {
			return domain.Report{}, fmt.Errorf("failed to unmarshal report note: %w", err)
		}
		report.Notes = append(report.Notes, line)
	}
	return report, nil
}
