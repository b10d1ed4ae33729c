package projections

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/messaging"
)

// PublisherProjector forwards packing records and finalized reports to
// their outbound queues
type PublisherProjector struct {
	publisher messaging.Publisher
	queues    config.AzureConfig
}

// NewPublisherProjector creates a new publisher projector
func NewPublisherProjector(publisher messaging.Publisher, queues config.AzureConfig) *PublisherProjector {
	return &PublisherProjector{publisher: publisher, queues: queues}
}

// Name identifies the projector in logs
func (p *PublisherProjector) Name() string { return "outbound-publisher" }

// Project publishes the events downstream systems subscribe to
func (p *PublisherProjector) Project(ctx context.Context, event domain.Event) error {
	switch event.Type {
	case domain.CartPackingStarted:
		data, err := eventData[domain.CartPackingStartedEvent](event)
		if err != nil {
			return err
		}
		if err := p.publisher.Publish(ctx, p.queues.PackingRecordsQueue, messaging.PackingStarted, data.Record); err != nil {
			return err
		}
		log.Info().Str("cartID", data.Record.CartID).Msg("Packing record published")

	case domain.ReportFinalizedEv:
		data, err := eventData[domain.ReportFinalizedEvent](event)
		if err != nil {
			return err
		}
		if err := p.publisher.Publish(ctx, p.queues.FinalizedReportsQueue, messaging.ReportFinalized, data.Report); err != nil {
			return err
		}
		log.Info().Str("reportID", data.Report.ID).Msg("Finalized report published")
	}
	return nil
}
