package projections

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/tracing"
)

func TestTracedProjectorPassesThrough(t *testing.T) {
	tracer, err := tracing.NewTracer(config.NewRelicConfig{})
	require.NoError(t, err)

	inner := new(MockProjector)
	event := domain.Event{ID: "e-1", Type: domain.CartCreated}
	boom := errors.New("boom")
	inner.On("Project", mock.Anything, event).Return(boom)

	traced := Traced(tracer, inner)
	require.Len(t, traced, 1)
	require.Equal(t, "mock", traced[0].Name())
	require.ErrorIs(t, traced[0].Project(context.Background(), event), boom)
	inner.AssertExpectations(t)
}
