package projections

import (
	"context"
	"fmt"

	"example.com/backstage/services/bipagem/domain"
)

// Projector applies stored events to a read model or downstream system.
// Projectors ignore event types they do not handle and must tolerate
// seeing the same event again.
type Projector interface {
	Name() string
	Project(ctx context.Context, event domain.Event) error
}

// eventData asserts the decoded payload of an event
func eventData[T any](event domain.Event) (T, error) {
	switch data := event.Data.(type) {
	case T:
		return data, nil
	case *T:
		if data != nil {
			return *data, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unexpected payload %T for event %s", event.Data, event.Type)
}
