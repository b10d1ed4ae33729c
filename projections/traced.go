package projections

import (
	"context"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/tracing"
)

// TracedProjector runs a projector inside a background transaction
type TracedProjector struct {
	Projector
	tracer tracing.Tracer
}

// Traced wraps every projector with tracer
func Traced(tracer tracing.Tracer, projectors ...Projector) []Projector {
	traced := make([]Projector, len(projectors))
	for i, p := range projectors {
		traced[i] = &TracedProjector{Projector: p, tracer: tracer}
	}
	return traced
}

// Project runs the wrapped projector and records its error, if any
func (p *TracedProjector) Project(ctx context.Context, event domain.Event) error {
	ctx, txn := p.tracer.StartTransaction(ctx, "project/"+p.Name())
	if txn != nil {
		txn.AddAttribute("eventType", event.Type)
		txn.AddAttribute("aggregateID", event.AggregateID)
	}

	err := p.Projector.Project(ctx, event)
	p.tracer.EndTransaction(txn, err)
	return err
}
