package handlers

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/cache"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/export"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/tracing"
)

// ReportHandler handles report finalization and downstream status changes
type ReportHandler struct {
	sessions repository.SessionStore
	reports  repository.ReportStore
	cache    Cache
	locks    *SessionLocks
	newID    func() string
	now      func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(sessions repository.SessionStore, reports repository.ReportStore, c Cache, locks *SessionLocks) *ReportHandler {
	return &ReportHandler{
		sessions: sessions,
		reports:  reports,
		cache:    c,
		locks:    locks,
		newID:    func() string { return uuid.New().String() },
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Finalize turns the session's notebook into a report and clears the notebook
func (h *ReportHandler) Finalize(ctx context.Context, session domain.Session, transporter string) (*domain.Report, error) {
	defer tracing.StartSegment(ctx, "ReportHandler.Finalize").End()

	if err := checkReceivingArea(session, "finalize a report"); err != nil {
		return nil, err
	}

	unlock := h.locks.Lock(session.Key())
	defer unlock()

	notebook, err := h.sessions.LoadNotebook(ctx, session.Key())
	if err != nil {
		return nil, err
	}

	report, err := domain.FinalizeReport(session, notebook, transporter, h.newID(), h.now())
	if err != nil {
		return nil, err
	}

	aggregate, err := domain.RecordFinalized(*report)
	if err != nil {
		return nil, err
	}
	if err := h.reports.AppendReport(ctx, aggregate); err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionKey", session.Key()).
		Str("reportID", report.ID).
		Int("notes", report.NoteCount).
		Int("volume", report.TotalVolume).
		Msg("Report finalized")

	invalidate(ctx, h.cache, cache.Update{
		SessionKey: session.Key(),
		Resource:   ResourceReport,
		ResourceID: report.ID,
		Action:     "finalize",
	}, cache.NotebookKey(session.Key()))

	return report, nil
}

// Get returns a report with its notes
func (h *ReportHandler) Get(ctx context.Context, reportID string) (*domain.Report, error) {
	defer tracing.StartSegment(ctx, "ReportHandler.Get").End()

	aggregate, err := h.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return &aggregate.State, nil
}

// List returns reports matching the filter, newest first
func (h *ReportHandler) List(ctx context.Context, filter repository.ReportFilter) ([]domain.Report, error) {
	defer tracing.StartSegment(ctx, "ReportHandler.List").End()

	return h.reports.ListReports(ctx, filter)
}

// ChangeStatus advances a report's downstream status. Only administrators and
// the cost review area may do it.
func (h *ReportHandler) ChangeStatus(ctx context.Context, session domain.Session, reportID string, next domain.ReportStatus) (*domain.Report, error) {
	defer tracing.StartSegment(ctx, "ReportHandler.ChangeStatus").End()

	if !session.Role.IsAdmin() && session.Area != domain.AreaCosts {
		return nil, &domain.PermissionDeniedError{Action: "change report status"}
	}

	aggregate, err := h.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := aggregate.ChangeStatus(next); err != nil {
		return nil, err
	}
	if err := h.reports.SaveReportStatus(ctx, aggregate); err != nil {
		return nil, err
	}

	log.Info().
		Str("reportID", reportID).
		Str("status", string(next)).
		Strs("by", session.Collaborators).
		Msg("Report status changed")

	invalidate(ctx, h.cache, cache.Update{
		SessionKey: session.Key(),
		Resource:   ResourceReport,
		ResourceID: reportID,
		Action:     string(next),
	})

	return &aggregate.State, nil
}

// Export renders a report as a spreadsheet and returns it with its file name
func (h *ReportHandler) Export(ctx context.Context, reportID string) (*bytes.Buffer, string, error) {
	defer tracing.StartSegment(ctx, "ReportHandler.Export").End()

	aggregate, err := h.load(ctx, reportID)
	if err != nil {
		return nil, "", err
	}

	buf, err := export.ReportWorkbook(aggregate.State)
	if err != nil {
		return nil, "", err
	}
	return buf, export.FileName(aggregate.State), nil
}

func (h *ReportHandler) load(ctx context.Context, reportID string) (*domain.ReportAggregate, error) {
	aggregate, err := h.reports.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "report", ID: reportID}
		}
		return nil, err
	}
	return aggregate, nil
}
