package projections

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/database/dbtest"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/eventstore"
	"example.com/backstage/services/bipagem/export"
	"example.com/backstage/services/bipagem/models"
	"example.com/backstage/services/bipagem/repository"
)

// MockArchiver is a mock implementation of Archiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, objectName, data, size, contentType)
	return args.Error(0)
}

func testReport(t *testing.T) domain.Report {
	t.Helper()
	session := domain.Session{
		Collaborators: []string{"Ana"},
		Date:          "2025-03-14",
		Shift:         domain.ShiftA,
		Area:          domain.AreaReceiving,
		Role:          domain.RoleOperator,
	}
	notebook := domain.NewNotebook(session.Key())
	line, err := domain.ParseReceiving("45868|000068310|14|RJ08|EMS S/A|SAO JO|ROD", time.Now())
	require.NoError(t, err)
	notebook.Add(line)

	report, err := domain.FinalizeReport(session, notebook, "TRANSPORTADORA X", "r-1", time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return *report
}

func TestArchiveProjector(t *testing.T) {
	db := dbtest.NewDB(t)
	reports := repository.NewReportStore(db, eventstore.NewGormEventStore(db))

	report := testReport(t)
	aggregate, err := domain.RecordFinalized(report)
	require.NoError(t, err)
	require.NoError(t, reports.AppendReport(context.Background(), aggregate))

	archiver := new(MockArchiver)
	object := "relatorios/2025-03-14/relatorio_2025-03-14_A_TRANSPORTADORA_X.xlsx"
	archiver.On("UploadFile", mock.Anything, object, mock.MatchedBy(func(data []byte) bool {
		// xlsx files are zip archives
		return bytes.HasPrefix(data, []byte("PK"))
	}), mock.Anything, export.ContentType).Return(nil)

	projector := NewArchiveProjector(reports, archiver)
	require.NoError(t, projector.Project(context.Background(), domain.Event{
		Type: domain.ReportFinalizedEv,
		Data: domain.ReportFinalizedEvent{Report: report},
	}))
	archiver.AssertExpectations(t)

	var row models.Report
	require.NoError(t, db.Where("report_id = ?", report.ID).First(&row).Error)
	require.NotNil(t, row.ArchiveObject)
	assert.Equal(t, object, *row.ArchiveObject)
}
