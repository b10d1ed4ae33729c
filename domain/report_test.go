package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() Session {
	return Session{
		Collaborators: []string{"Ana", "Bruno"},
		Date:          "2025-03-14",
		Shift:         ShiftA,
		Area:          AreaReceiving,
		Role:          RoleOperator,
		LoginAt:       scanTime,
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "recebimento_Ana_Bruno_2025-03-14_A", testSession().Key())
}

func TestSessionValidate(t *testing.T) {
	require.NoError(t, testSession().Validate())

	tooMany := testSession()
	tooMany.Collaborators = []string{"a", "b", "c", "d"}
	assert.Error(t, tooMany.Validate())

	none := testSession()
	none.Collaborators = nil
	assert.Error(t, none.Validate())

	badShift := testSession()
	badShift.Shift = "D"
	assert.Error(t, badShift.Validate())

	badDate := testSession()
	badDate.Date = "14/03/2025"
	assert.Error(t, badDate.Validate())

	var invalid *InvalidSessionError
	blank := testSession()
	blank.Collaborators = []string{"Ana", "   "}
	require.ErrorAs(t, blank.Validate(), &invalid)
	assert.Equal(t, KindInvalidSession, invalid.Kind())

	separator := testSession()
	separator.Collaborators = []string{"Ana_Bruno"}
	require.ErrorAs(t, separator.Validate(), &invalid)
	assert.Equal(t, "colaboradores", invalid.Field)
}

func TestSessionKeysDoNotCollide(t *testing.T) {
	pair := testSession()
	pair.Collaborators = []string{"Ana", "Bruno"}
	joined := testSession()
	joined.Collaborators = []string{"Ana_Bruno"}

	require.NoError(t, pair.Validate())
	require.Error(t, joined.Validate())
	assert.Equal(t, "recebimento_Ana_Bruno_2025-03-14_A", pair.Key())
}

func TestFinalizeReportUsesInformedVolume(t *testing.T) {
	notebook := NewNotebook(testSession().Key())
	a := mustReceiving(t, "45868|000000001|10|RJ08|EMS S/A|SAO JO|ROD")
	b := mustReceiving(t, "45868|000000002|10|RJ08|EMS S/A|SAO JO|ROD")
	c := mustReceiving(t, "45868|000000003|10|RJ08|EMS S/A|SAO JO|ROD")
	notebook.Add(a)
	notebook.Add(b)
	notebook.Add(c)
	require.NoError(t, notebook.SetDivergence(c.ID, Divergence{TypeCode: "0063", Description: "Avaria", InformedVolume: 7}))

	finalizedAt := time.Date(2025, 3, 14, 17, 45, 0, 0, time.UTC)
	report, err := FinalizeReport(testSession(), notebook, " TRANSPORTADORA X ", "r-1", finalizedAt)
	require.NoError(t, err)

	assert.Equal(t, 27, report.TotalVolume)
	assert.Equal(t, 3, report.NoteCount)
	assert.Equal(t, "TRANSPORTADORA X", report.Name)
	assert.Equal(t, ReportFinalized, report.Status)
	assert.Equal(t, finalizedAt, report.FinalizedAt)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{report.Notes[0].ID, report.Notes[1].ID, report.Notes[2].ID})

	// later edits to the notebook do not leak into the frozen report
	require.NoError(t, notebook.SetDivergence(c.ID, Divergence{TypeCode: "0063", InformedVolume: 1}))
	assert.Equal(t, 7, report.Notes[2].Divergence.InformedVolume)
}

func TestFinalizeReportRejectsBlankTransporter(t *testing.T) {
	notebook := NewNotebook(testSession().Key())
	notebook.Add(mustReceiving(t, "45868|000000011|4|RJ08|EMS S/A|SAO JO|ROD"))

	_, err := FinalizeReport(testSession(), notebook, "   ", "r-1", scanTime)
	var invalid *InvalidReportError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, KindInvalidReport, invalid.Kind())
}

func TestFinalizeReportSkipsRejectedNotes(t *testing.T) {
	notebook := NewNotebook("k")
	rejected := mustReceiving(t, "45868|000000009|4|RJ08|EMS S/A|SAO JO|ROD")
	rejected.Status = LineInvalid
	notebook.Add(rejected)

	_, err := FinalizeReport(testSession(), notebook, "X", "r-1", scanTime)
	var empty *EmptyReportError
	require.ErrorAs(t, err, &empty)

	valid := mustReceiving(t, "45868|000000010|4|RJ08|EMS S/A|SAO JO|ROD")
	notebook.Add(valid)
	report, err := FinalizeReport(testSession(), notebook, "X", "r-1", scanTime)
	require.NoError(t, err)
	assert.Equal(t, 1, report.NoteCount)
	assert.Equal(t, 4, report.TotalVolume)
}

func TestNotebookDivergenceRules(t *testing.T) {
	notebook := NewNotebook("k")
	rejected := mustReceiving(t, "45868|000000009|4|RJ08|EMS S/A|SAO JO|ROD")
	rejected.Status = LineDuplicate
	notebook.Add(rejected)

	var transErr *InvalidTransitionError
	require.ErrorAs(t, notebook.SetDivergence(rejected.ID, Divergence{InformedVolume: 2}), &transErr)

	var notFound *NotFoundError
	require.ErrorAs(t, notebook.SetDivergence("missing", Divergence{InformedVolume: 2}), &notFound)
	require.ErrorAs(t, notebook.Remove("missing"), &notFound)

	require.NoError(t, notebook.Remove(rejected.ID))
	assert.Empty(t, notebook.Lines())
}

func TestReportStatusMovesForwardOnly(t *testing.T) {
	report := Report{ID: "r-1", Status: ReportFinalized}
	aggregate, err := RecordFinalized(report)
	require.NoError(t, err)

	var transErr *InvalidTransitionError
	require.ErrorAs(t, aggregate.ChangeStatus(ReportLaunched), &transErr)

	require.NoError(t, aggregate.ChangeStatus(ReportLaunching))
	require.NoError(t, aggregate.ChangeStatus(ReportLaunched))
	require.ErrorAs(t, aggregate.ChangeStatus(ReportFinalized), &transErr)

	assert.Equal(t, ReportLaunched, aggregate.State.Status)
	assert.Equal(t, 3, aggregate.GetVersion())
	types := make([]string, 0, 3)
	for _, ev := range aggregate.GetEvents() {
		types = append(types, ev.Type)
	}
	if diff := cmp.Diff([]string{ReportFinalizedEv, ReportStatusChangedEv, ReportStatusChangedEv}, types); diff != "" {
		t.Errorf("event types mismatch (-want +got):\n%s", diff)
	}
}
