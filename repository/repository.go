package repository

import (
	"context"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/models"
)

// CartStore persists cart aggregates together with their snapshots
type CartStore interface {
	LoadSessionCarts(ctx context.Context, sessionKey string) ([]*domain.CartAggregate, error)
	LoadCart(ctx context.Context, cartID string) (*domain.CartAggregate, error)
	SaveCarts(ctx context.Context, carts ...*domain.CartAggregate) error
	CartHistory(ctx context.Context, cartID string) ([]domain.Event, error)
	ListPackingRecords(ctx context.Context, sessionKey string) ([]domain.PackingRecord, error)
}

// SessionStore persists session identities and receiving notebooks
type SessionStore interface {
	SaveSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, sessionKey string) (*domain.Session, error)
	LoadNotebook(ctx context.Context, sessionKey string) (*domain.Notebook, error)
	SaveNotebook(ctx context.Context, notebook *domain.Notebook) error
}

// ReportFilter narrows a report listing
type ReportFilter struct {
	Area   domain.Area
	Date   string
	Status domain.ReportStatus
	Limit  int
}

// ReportStore persists finalized reports
type ReportStore interface {
	domain.ReportedLookup
	AppendReport(ctx context.Context, report *domain.ReportAggregate) error
	GetReport(ctx context.Context, reportID string) (*domain.ReportAggregate, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
	SaveReportStatus(ctx context.Context, report *domain.ReportAggregate) error
	SetArchiveObject(ctx context.Context, reportID, object string) error
}

// InvoiceStore tracks invoices confirmed by the receiving stage
type InvoiceStore interface {
	domain.ReceivedLookup
	RecordReceivedInvoice(ctx context.Context, invoice *models.ReceivedInvoice) (bool, error)
}
