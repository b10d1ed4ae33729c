package domain

import (
	"strings"
	"time"
)

// Report is an immutable finalized export of a session's notes
type Report struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Collaborators  []string      `json:"collaborators"`
	Date           string        `json:"data"`
	Shift          Shift         `json:"turno"`
	Area           Area          `json:"area"`
	SessionKey     string        `json:"sessionKey,omitempty"`
	NoteCount      int           `json:"quantidadeNotas"`
	TotalVolume    int           `json:"somaVolumes"`
	Notes          []ScannedLine `json:"notas"`
	FinalizedAt    time.Time     `json:"dataFinalizacao"`
	Status         ReportStatus  `json:"status"`
	StatusChangeAt *time.Time    `json:"dataStatus,omitempty"`
}

// FinalizeReport snapshots the notebook's reportable notes into a report
func FinalizeReport(session Session, notebook *Notebook, transporter, id string, now time.Time) (*Report, error) {
	name := strings.TrimSpace(transporter)
	if name == "" {
		return nil, &InvalidReportError{Reason: "transporter name cannot be blank"}
	}

	notes := notebook.Reportable()
	if len(notes) == 0 {
		return nil, &EmptyReportError{SessionKey: session.Key()}
	}

	frozen := make([]ScannedLine, len(notes))
	for i, n := range notes {
		frozen[i] = n
		if n.Divergence != nil {
			div := *n.Divergence
			frozen[i].Divergence = &div
		}
	}

	collaborators := make([]string, len(session.Collaborators))
	copy(collaborators, session.Collaborators)

	return &Report{
		ID:            id,
		Name:          name,
		Collaborators: collaborators,
		Date:          session.Date,
		Shift:         session.Shift,
		Area:          session.Area,
		SessionKey:    session.Key(),
		NoteCount:     len(frozen),
		TotalVolume:   sumVolumes(frozen),
		Notes:         frozen,
		FinalizedAt:   now,
		Status:        ReportFinalized,
	}, nil
}

// ReportAggregate tracks the downstream status of a report
type ReportAggregate struct {
	*AggregateBase
	State Report
}

// NewReportAggregate creates an empty report aggregate
func NewReportAggregate(id string) *ReportAggregate {
	aggregate := &ReportAggregate{State: Report{ID: id}}

	base := NewAggregateBase(ReportAggregateType, aggregate.applyEvent)
	base.SetID(id)
	aggregate.AggregateBase = base

	return aggregate
}

// RecordFinalized wraps a freshly finalized report in an aggregate carrying its event
func RecordFinalized(report Report) (*ReportAggregate, error) {
	aggregate := NewReportAggregate(report.ID)
	if err := aggregate.Apply(ReportFinalizedEvent{Report: report}); err != nil {
		return nil, err
	}
	return aggregate, nil
}

// RestoreReport rebuilds a report aggregate from its stored row
func RestoreReport(report Report, version int) *ReportAggregate {
	aggregate := NewReportAggregate(report.ID)
	aggregate.State = report
	aggregate.SetVersion(version)
	return aggregate
}

func (r *ReportAggregate) applyEvent(event interface{}) error {
	switch e := event.(type) {
	case ReportFinalizedEvent:
		r.State = e.Report
	case ReportStatusChangedEvent:
		r.State.Status = e.To
		at := e.At
		r.State.StatusChangeAt = &at
	}
	return nil
}

// ChangeStatus advances the downstream status one step
func (r *ReportAggregate) ChangeStatus(next ReportStatus) error {
	if !r.State.Status.CanMoveTo(next) {
		return &InvalidTransitionError{Action: "move report from " + string(r.State.Status) + " to " + string(next)}
	}
	return r.Apply(ReportStatusChangedEvent{
		ReportID: r.GetID(),
		From:     r.State.Status,
		To:       next,
		At:       nowFunc(),
	})
}
