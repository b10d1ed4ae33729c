package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/services/bipagem/api"
	"example.com/backstage/services/bipagem/cache"
	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/database"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/eventstore"
	"example.com/backstage/services/bipagem/handlers"
	"example.com/backstage/services/bipagem/projections"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/tracing"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Starting server")

	if err := cfg.Auth.Validate(); err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.Updates)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		redisCache, _ = cache.NewRedisCache(config.RedisConfig{}, cfg.Updates)
	}
	defer redisCache.Close()

	tracer, err := tracing.NewTracer(cfg.NewRelic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer, _ = tracing.NewTracer(config.NewRelicConfig{})
	}
	defer tracer.Close()

	es := eventstore.NewGormEventStore(db)
	carts := repository.NewCartStore(db, es)
	sessions := repository.NewSessionStore(db)
	reports := repository.NewReportStore(db, es)
	invoices := repository.NewInvoiceStore(db)

	locks := handlers.NewSessionLocks()
	checker := domain.NewChecker(invoices, reports)
	h := api.Handlers{
		Sessions: handlers.NewSessionHandler(sessions, cfg.Auth.AdminPassword),
		Carts:    handlers.NewCartHandler(carts, checker, redisCache, locks),
		Notes:    handlers.NewNoteHandler(sessions, checker, redisCache, locks),
		Reports:  handlers.NewReportHandler(sessions, reports, redisCache, locks),
	}

	var search api.ReportSearcher
	if cfg.Elasticsearch.Enabled {
		client, err := projections.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without report search")
		} else {
			search = projections.NewReportSearch(client, cfg.Elasticsearch)
		}
	}

	server := api.NewServer(cfg, h, redisCache, search, tracer.Application())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
	return nil
}
