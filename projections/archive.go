package projections

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/export"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/storage"
)

// Archiver stores report spreadsheets
type Archiver interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// ArchiveProjector uploads the spreadsheet of every finalized report
type ArchiveProjector struct {
	reports repository.ReportStore
	archive Archiver
}

// NewArchiveProjector creates a new archive projector
func NewArchiveProjector(reports repository.ReportStore, archive Archiver) *ArchiveProjector {
	return &ArchiveProjector{reports: reports, archive: archive}
}

// Name identifies the projector in logs
func (p *ArchiveProjector) Name() string { return "report-archive" }

// Project archives finalized reports and records where they were stored
func (p *ArchiveProjector) Project(ctx context.Context, event domain.Event) error {
	if event.Type != domain.ReportFinalizedEv {
		return nil
	}

	data, err := eventData[domain.ReportFinalizedEvent](event)
	if err != nil {
		return err
	}
	report := data.Report

	buf, err := export.ReportWorkbook(report)
	if err != nil {
		return err
	}

	object := storage.ReportObjectName(report.Date, export.FileName(report))
	if err := p.archive.UploadFile(ctx, object, buf, int64(buf.Len()), export.ContentType); err != nil {
		return err
	}

	if err := p.reports.SetArchiveObject(ctx, report.ID, object); err != nil {
		return err
	}

	log.Info().Str("reportID", report.ID).Str("object", object).Msg("Report archived")
	return nil
}
