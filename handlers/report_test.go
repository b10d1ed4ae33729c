package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
)

func finalizedReport(t *testing.T, env *testEnv) *domain.Report {
	t.Helper()
	ctx := context.Background()
	session := receivingSession(domain.RoleOperator)

	var last *ScanResult
	for _, raw := range []string{
		"45868|000000001|10|RJ08|EMS S/A|SAO JO|ROD",
		"45868|000000002|10|RJ08|EMS S/A|SAO JO|ROD",
		"45868|000000003|10|RJ08|EMS S/A|SAO JO|ROD",
	} {
		result, err := env.noteHandler.Scan(ctx, session, raw)
		require.NoError(t, err)
		last = result
	}
	_, err := env.noteHandler.SetDivergence(ctx, session, last.Line.ID, domain.Divergence{TypeCode: "0063", InformedVolume: 7})
	require.NoError(t, err)

	report, err := env.reportHandler.Finalize(ctx, session, "TRANSPORTADORA X")
	require.NoError(t, err)
	return report
}

func TestFinalizeClearsNotebookAndBlocksRescan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := receivingSession(domain.RoleOperator)

	report := finalizedReport(t, env)
	assert.Equal(t, 27, report.TotalVolume)
	assert.Equal(t, 3, report.NoteCount)
	assert.Equal(t, domain.ReportFinalized, report.Status)

	notebook, err := env.noteHandler.List(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, notebook.Notes)

	_, err = env.reportHandler.Finalize(ctx, session, "TRANSPORTADORA X")
	var empty *domain.EmptyReportError
	require.ErrorAs(t, err, &empty)

	again, err := env.noteHandler.Scan(ctx, session, "45868|000000002|10|RJ08|EMS S/A|SAO JO|ROD")
	require.NoError(t, err)
	assert.Equal(t, domain.Rejected, again.Outcome)
	assert.Equal(t, domain.KindAlreadyReported, again.Kind)

	// the receiving stage now vouches for the reported invoices
	received, err := env.invoices.IsInvoiceReceived(ctx, "000000002")
	require.NoError(t, err)
	assert.True(t, received)

	stored, err := env.reportHandler.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 27, stored.TotalVolume)
	require.Len(t, stored.Notes, 3)

	listed, err := env.reportHandler.List(ctx, repository.ReportFilter{Area: domain.AreaReceiving})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, report.ID, listed[0].ID)
}

func TestChangeStatusPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	report := finalizedReport(t, env)

	_, err := env.reportHandler.ChangeStatus(ctx, receivingSession(domain.RoleOperator), report.ID, domain.ReportLaunching)
	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)

	costs := domain.Session{
		Collaborators: []string{"Carla"},
		Date:          "2025-03-14",
		Shift:         domain.ShiftA,
		Area:          domain.AreaCosts,
		Role:          domain.RoleOperator,
	}
	updated, err := env.reportHandler.ChangeStatus(ctx, costs, report.ID, domain.ReportLaunching)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportLaunching, updated.Status)

	var transErr *domain.InvalidTransitionError
	_, err = env.reportHandler.ChangeStatus(ctx, costs, report.ID, domain.ReportFinalized)
	require.ErrorAs(t, err, &transErr)

	updated, err = env.reportHandler.ChangeStatus(ctx, receivingSession(domain.RoleAdmin), report.ID, domain.ReportLaunched)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportLaunched, updated.Status)

	_, err = env.reportHandler.ChangeStatus(ctx, costs, "missing", domain.ReportLaunching)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestExportReport(t *testing.T) {
	env := newTestEnv(t)
	report := finalizedReport(t, env)

	buf, name, err := env.reportHandler.Export(context.Background(), report.ID)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
	assert.Equal(t, "relatorio_2025-03-14_B_TRANSPORTADORA_X.xlsx", name)
}
