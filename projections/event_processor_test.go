package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
)

// MockEventStore is a mock implementation of eventstore.EventStore
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Save(ctx context.Context, aggregate domain.Aggregate) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockEventStore) Append(tx *gorm.DB, aggregate domain.Aggregate) error {
	args := m.Called(tx, aggregate)
	return args.Error(0)
}

func (m *MockEventStore) Load(ctx context.Context, aggregate domain.Aggregate) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockEventStore) Exists(ctx context.Context, aggregateID string) (bool, error) {
	args := m.Called(ctx, aggregateID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	args := m.Called(ctx, aggregateID)
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockEventStore) GetUnprocessedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockEventStore) MarkEventAsProcessed(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockEventStore) MarkEventAsFailed(ctx context.Context, eventID string, cause error) error {
	args := m.Called(ctx, eventID, cause)
	return args.Error(0)
}

// MockProjector is a mock implementation of Projector
type MockProjector struct {
	mock.Mock
}

func (m *MockProjector) Name() string { return "mock" }

func (m *MockProjector) Project(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestProcessBatch(t *testing.T) {
	store := new(MockEventStore)
	first := new(MockProjector)
	second := new(MockProjector)

	ok := domain.Event{ID: "e-1", Type: domain.CartCreated}
	bad := domain.Event{ID: "e-2", Type: domain.CartLineAdded}
	boom := errors.New("index unavailable")

	store.On("GetUnprocessedEvents", mock.Anything, 50).Return([]domain.Event{ok, bad}, nil)
	store.On("MarkEventAsProcessed", mock.Anything, "e-1").Return(nil)
	store.On("MarkEventAsFailed", mock.Anything, "e-2", mock.MatchedBy(func(err error) bool {
		return errors.Is(err, boom)
	})).Return(nil)

	first.On("Project", mock.Anything, ok).Return(nil)
	first.On("Project", mock.Anything, bad).Return(boom)
	second.On("Project", mock.Anything, ok).Return(nil)

	processor := NewEventProcessor(store, config.ProcessorConfig{BatchSize: 50, Interval: time.Second}, first, second)
	processed, err := processor.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	store.AssertExpectations(t)
	first.AssertExpectations(t)
	// later projectors are skipped once one fails
	second.AssertNotCalled(t, "Project", mock.Anything, bad)
}

func TestProcessBatchStoreError(t *testing.T) {
	store := new(MockEventStore)
	store.On("GetUnprocessedEvents", mock.Anything, 100).Return([]domain.Event(nil), errors.New("db down"))

	processor := NewEventProcessor(store, config.ProcessorConfig{})
	_, err := processor.ProcessBatch(context.Background())
	require.EqualError(t, err, "db down")
}

func TestStartStopDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := new(MockEventStore)
	projector := new(MockProjector)
	event := domain.Event{ID: "e-1", Type: domain.ReportFinalizedEv}

	done := make(chan struct{})
	store.On("GetUnprocessedEvents", mock.Anything, 10).Return([]domain.Event{event}, nil).Once()
	store.On("GetUnprocessedEvents", mock.Anything, 10).Return([]domain.Event{}, nil)
	store.On("MarkEventAsProcessed", mock.Anything, "e-1").Run(func(mock.Arguments) { close(done) }).Return(nil).Once()
	projector.On("Project", mock.Anything, event).Return(nil)

	processor := NewEventProcessor(store, config.ProcessorConfig{BatchSize: 10, Interval: 10 * time.Millisecond}, projector)
	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()), "starting twice is a no-op")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event was not processed")
	}

	require.NoError(t, processor.Stop())
	require.NoError(t, processor.Stop())
	projector.AssertExpectations(t)
}
