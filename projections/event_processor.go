package projections

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/eventstore"
)

// EventProcessor drains unprocessed events from the store into projectors
type EventProcessor struct {
	store      eventstore.EventStore
	projectors []Projector
	batchSize  int
	interval   time.Duration
	mutex      sync.Mutex
	scheduler  gocron.Scheduler
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(store eventstore.EventStore, cfg config.ProcessorConfig, projectors ...Projector) *EventProcessor {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &EventProcessor{
		store:      store,
		projectors: projectors,
		batchSize:  batchSize,
		interval:   interval,
	}
}

// Start schedules batch processing every interval, beginning immediately
func (p *EventProcessor) Start(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.scheduler != nil {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() {
			if _, err := p.ProcessBatch(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to process event batch")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule event processing: %w", err)
	}

	scheduler.Start()
	p.scheduler = scheduler

	log.Info().Dur("interval", p.interval).Int("batchSize", p.batchSize).Msg("Event processor started")
	return nil
}

// Stop stops the scheduler and waits for a running batch to finish
func (p *EventProcessor) Stop() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.scheduler == nil {
		return nil
	}

	err := p.scheduler.Shutdown()
	p.scheduler = nil
	return err
}

// ProcessBatch projects one batch of events and returns how many were
// processed successfully. Events a projector fails on stay unprocessed and
// are retried on a later batch.
func (p *EventProcessor) ProcessBatch(ctx context.Context) (int, error) {
	events, err := p.store.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	log.Debug().Int("events", len(events)).Msg("Processing events")

	processed := 0
	for _, event := range events {
		if err := p.project(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("Failed to process event")
			if err := p.store.MarkEventAsFailed(ctx, event.ID, err); err != nil {
				log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to record event failure")
			}
			continue
		}

		if err := p.store.MarkEventAsProcessed(ctx, event.ID); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to mark event as processed")
			continue
		}
		processed++
	}

	return processed, nil
}

func (p *EventProcessor) project(ctx context.Context, event domain.Event) error {
	for _, projector := range p.projectors {
		if err := projector.Project(ctx, event); err != nil {
			return fmt.Errorf("%s: %w", projector.Name(), err)
		}
	}
	return nil
}
