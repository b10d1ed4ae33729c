package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/config"
)

// Event types carried on the queues
const (
	PackingStarted  = "PackingStarted"
	ReportFinalized = "ReportFinalized"
	InvoiceReceived = "InvoiceReceived"
)

// baseBackoff is the first retry delay, doubled on each attempt
var baseBackoff = time.Second

// maxBackoff caps the retry delay
const maxBackoff = 30 * time.Second

// AzureBusMessage is the common message structure
type AzureBusMessage struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// MessageProcessor handles one received message
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Publisher sends typed messages to a queue
type Publisher interface {
	Publish(ctx context.Context, queueName, eventType string, data interface{}) error
}

// AzureClient publishes to and consumes from Azure Service Bus queues
type AzureClient struct {
	client     *azservicebus.Client
	maxRetries int
}

// NewAzureClient creates a new Service Bus client
func NewAzureClient(cfg config.AzureConfig) (*AzureClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, pkgerrors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create service bus client")
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &AzureClient{client: client, maxRetries: maxRetries}, nil
}

// NewMessage wraps data in the common envelope
func NewMessage(eventType string, data interface{}) (*azservicebus.Message, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to marshal message data")
	}

	body, err := json.Marshal(AzureBusMessage{EventType: eventType, Data: payload})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to marshal message")
	}

	contentType := "application/json"
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		ApplicationProperties: map[string]interface{}{
			"eventType": eventType,
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Publish sends a message, retrying disconnections with backoff
func (a *AzureClient) Publish(ctx context.Context, queueName, eventType string, data interface{}) error {
	message, err := NewMessage(eventType, data)
	if err != nil {
		return err
	}

	return RetryWithBackoff(ctx, func() error {
		sender, err := a.client.NewSender(queueName, nil)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to create sender for queue %s", queueName)
		}
		defer sender.Close(ctx)

		if err := sender.SendMessage(ctx, message, nil); err != nil {
			return pkgerrors.Wrapf(err, "failed to send %s to %s", eventType, queueName)
		}
		return nil
	}, a.maxRetries)
}

// Consume receives messages from a queue until ctx is done. Messages the
// processor fails on are abandoned so the broker redelivers them.
func (a *AzureClient) Consume(ctx context.Context, queueName string, processor MessageProcessor) error {
	log.Info().Str("queue", queueName).Msg("Starting consumer")

	receiver, err := a.client.NewReceiverForQueue(queueName, &azservicebus.ReceiverOptions{
		ReceiveMode: azservicebus.ReceiveModePeekLock,
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create receiver for queue %s", queueName)
	}
	defer receiver.Close(context.Background())

	for {
		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if IsDisconnectionError(err) {
				log.Warn().Err(err).Str("queue", queueName).Msg("Receiver disconnected, retrying")
				if !sleep(ctx, baseBackoff) {
					return nil
				}
				continue
			}
			return pkgerrors.Wrapf(err, "failed to receive messages from %s", queueName)
		}

		for _, message := range messages {
			if err := processor.ProcessMessage(ctx, message); err != nil {
				log.Error().Err(err).Str("messageID", message.MessageID).Msg("Error processing message")
				if err := receiver.AbandonMessage(context.Background(), message, nil); err != nil {
					log.Error().Err(err).Str("messageID", message.MessageID).Msg("Failed to abandon message")
				}
				continue
			}

			if err := receiver.CompleteMessage(context.Background(), message, nil); err != nil {
				log.Error().Err(err).Str("messageID", message.MessageID).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the client
func (a *AzureClient) Close(ctx context.Context) error {
	return a.client.Close(ctx)
}

// IsDisconnectionError checks if an error is a disconnection error
func IsDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	var sbErr *azservicebus.Error
	if errors.As(err, &sbErr) && sbErr.Code == azservicebus.CodeConnectionLost {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "amqp: link detached") ||
		strings.Contains(errMsg, "awaiting send: context deadline exceeded")
}

// RetryWithBackoff retries an operation with exponential backoff. Only
// disconnection errors are retried.
func RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error {
	var err error

	for retry := 0; retry < maxRetries; retry++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !IsDisconnectionError(err) {
			return err
		}

		if retry == maxRetries-1 {
			break
		}

		backoff := baseBackoff * time.Duration(1<<uint(retry))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}

	return err
}

// sleep waits for d and reports false when ctx ends first
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
