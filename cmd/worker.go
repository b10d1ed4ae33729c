package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/database"
	"example.com/backstage/services/bipagem/eventstore"
	"example.com/backstage/services/bipagem/messaging"
	"example.com/backstage/services/bipagem/projections"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/storage"
	"example.com/backstage/services/bipagem/tracing"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker projecting stored events to search, archive and outbound queues, and consuming received invoice confirmations`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	tracer, err := tracing.NewTracer(cfg.NewRelic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer, _ = tracing.NewTracer(config.NewRelicConfig{})
	}
	defer tracer.Close()

	es := eventstore.NewGormEventStore(db)
	carts := repository.NewCartStore(db, es)
	reports := repository.NewReportStore(db, es)
	invoices := repository.NewInvoiceStore(db)

	var projectors []projections.Projector

	if cfg.Elasticsearch.Enabled {
		client, err := projections.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search indexing")
		} else if err := projections.EnsureIndices(ctx, client, cfg.Elasticsearch); err != nil {
			log.Warn().Err(err).Msg("Failed to create search indices, continuing without search indexing")
		} else {
			projectors = append(projectors,
				projections.NewCartProjector(carts, client, cfg.Elasticsearch),
				projections.NewReportProjector(reports, client, cfg.Elasticsearch),
			)
		}
	}

	if cfg.Minio.Enabled {
		minio, err := storage.NewMinioService(cfg.Minio)
		if err != nil {
			return err
		}
		if err := minio.EnsureBucket(ctx); err != nil {
			return err
		}
		projectors = append(projectors, projections.NewArchiveProjector(reports, minio))
	}

	var azureClient *messaging.AzureClient
	if cfg.Azure.QueueConnStr != "" {
		azureClient, err = messaging.NewAzureClient(cfg.Azure)
		if err != nil {
			return err
		}
		defer azureClient.Close(context.Background())
		projectors = append(projectors, projections.NewPublisherProjector(azureClient, cfg.Azure))
	} else {
		log.Warn().Msg("Azure Service Bus not configured, outbound messages and received invoice confirmations are disabled")
	}

	processor := projections.NewEventProcessor(es, cfg.Processor, projections.Traced(tracer, projectors...)...)

	g.Go(func() error {
		if err := processor.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return processor.Stop()
	})

	if azureClient != nil && cfg.Azure.ReceivedInvoicesQueue != "" {
		invoiceProcessor := messaging.NewInvoiceProcessor(invoices)
		g.Go(func() error {
			return azureClient.Consume(ctx, cfg.Azure.ReceivedInvoicesQueue, invoiceProcessor)
		})
	}

	log.Info().Int("projectors", len(projectors)).Msg("Worker started")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
