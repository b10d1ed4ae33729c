package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/config"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	tracer, err := NewTracer(config.NewRelicConfig{Enabled: true})
	require.NoError(t, err)

	assert.Nil(t, tracer.Application())

	ctx := context.Background()
	txnCtx, txn := tracer.StartTransaction(ctx, "processor")
	assert.Nil(t, txn)
	assert.Equal(t, ctx, txnCtx)

	tracer.EndTransaction(txn, errors.New("boom"))
	StartSegment(ctx, "segment").End()
	tracer.Close()
}
