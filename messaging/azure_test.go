package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	previous := baseBackoff
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = previous })
}

func TestRetryWithBackoffRetriesDisconnections(t *testing.T) {
	fastBackoff(t)

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("amqp: link detached, reason: *Error{Condition: amqp:link:detach-forced}")
		}
		return nil
	}, 5)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnOtherErrors(t *testing.T) {
	fastBackoff(t)

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("queue not found")
	}, 5)

	require.EqualError(t, err, "queue not found")
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffGivesUp(t *testing.T) {
	fastBackoff(t)

	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("amqp: link detached")
	}, 3)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffHonoursContext(t *testing.T) {
	previous := baseBackoff
	baseBackoff = time.Hour
	t.Cleanup(func() { baseBackoff = previous })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return errors.New("amqp: link detached")
	}, 3)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewMessageEnvelope(t *testing.T) {
	message, err := NewMessage(PackingStarted, map[string]string{"cart_id": "c-1"})
	require.NoError(t, err)

	var envelope AzureBusMessage
	require.NoError(t, json.Unmarshal(message.Body, &envelope))
	assert.Equal(t, PackingStarted, envelope.EventType)
	assert.JSONEq(t, `{"cart_id":"c-1"}`, string(envelope.Data))
	assert.Equal(t, PackingStarted, message.ApplicationProperties["eventType"])
	require.NotNil(t, message.ContentType)
	assert.Equal(t, "application/json", *message.ContentType)
}
