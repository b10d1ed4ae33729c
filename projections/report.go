package projections

import (
	"context"

	"github.com/elastic/go-elasticsearch/v7"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
)

// ReportProjector indexes every note of a finalized report
type ReportProjector struct {
	reports       repository.ReportStore
	elasticClient *elasticsearch.Client
	cfg           config.ElasticConfig
}

// NewReportProjector creates a new report projector
func NewReportProjector(reports repository.ReportStore, elasticClient *elasticsearch.Client, cfg config.ElasticConfig) *ReportProjector {
	return &ReportProjector{
		reports:       reports,
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// Name identifies the projector in logs
func (p *ReportProjector) Name() string { return "report-notes-index" }

// Project indexes the notes of finalized reports and refreshes their status
func (p *ReportProjector) Project(ctx context.Context, event domain.Event) error {
	switch event.Type {
	case domain.ReportFinalizedEv:
		data, err := eventData[domain.ReportFinalizedEvent](event)
		if err != nil {
			return err
		}
		return p.indexReport(ctx, data.Report)

	case domain.ReportStatusChangedEv:
		aggregate, err := p.reports.GetReport(ctx, event.AggregateID)
		if err != nil {
			return err
		}
		return p.indexReport(ctx, aggregate.State)
	}
	return nil
}

func (p *ReportProjector) indexReport(ctx context.Context, report domain.Report) error {
	index := config.FormatIndex(p.cfg, ReportNotesIndex)
	for _, doc := range NoteDocuments(report) {
		if err := indexDocument(ctx, p.elasticClient, index, doc.ReportID+"-"+doc.NoteID, doc); err != nil {
			return err
		}
	}
	return nil
}

// NoteDocuments builds the index documents of a report's notes
func NoteDocuments(report domain.Report) []NoteDocument {
	docs := make([]NoteDocument, len(report.Notes))
	for i, note := range report.Notes {
		docs[i] = NoteDocument{
			ReportID:         report.ID,
			ReportName:       report.Name,
			NoteID:           note.ID,
			InvoiceNumber:    note.InvoiceNumber,
			Supplier:         note.Supplier,
			FinalDestination: note.FinalDestination,
			Collaborators:    report.Collaborators,
			Area:             string(report.Area),
			Date:             report.Date,
			Shift:            string(report.Shift),
			Status:           string(report.Status),
			Volume:           note.EffectiveVolume(),
			FinalizedAt:      report.FinalizedAt,
		}
	}
	return docs
}
