package tracing

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/config"
)

// Tracer defines the interface for tracing
type Tracer interface {
	Application() *newrelic.Application
	StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction)
	EndTransaction(txn *newrelic.Transaction, err error)
	Close()
}

// NewRelicTracer implements Tracer using New Relic
type NewRelicTracer struct {
	app     *newrelic.Application
	enabled bool
}

// NewTracer creates a new tracer. Without a license key tracing is a no-op.
func NewTracer(cfg config.NewRelicConfig) (*NewRelicTracer, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		log.Warn().Msg("New Relic disabled or license key not provided, tracing will be disabled")
		return &NewRelicTracer{enabled: false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}

	return &NewRelicTracer{
		app:     app,
		enabled: true,
	}, nil
}

// Application returns the agent application, nil when tracing is disabled
func (t *NewRelicTracer) Application() *newrelic.Application {
	return t.app
}

// StartTransaction starts a background transaction and stores it in the context
func (t *NewRelicTracer) StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	if !t.enabled || t.app == nil {
		return ctx, nil
	}
	txn := t.app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn
}

// EndTransaction records err, if any, and ends the transaction
func (t *NewRelicTracer) EndTransaction(txn *newrelic.Transaction, err error) {
	if !t.enabled || txn == nil {
		return
	}
	if err != nil {
		txn.NoticeError(err)
	}
	txn.End()
}

// Close flushes pending data to New Relic
func (t *NewRelicTracer) Close() {
	if !t.enabled || t.app == nil {
		return
	}

	t.app.Shutdown(10 * time.Second)
	log.Info().Msg("New Relic tracer shutdown")
}

// StartSegment starts a segment on the transaction carried by ctx. Both the
// transaction and the returned segment may be nil, End is safe either way.
func StartSegment(ctx context.Context, name string) *newrelic.Segment {
	return newrelic.FromContext(ctx).StartSegment(name)
}
