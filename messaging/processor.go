package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/models"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/utils"
)

// ReceivedInvoiceSource marks invoices confirmed through the queue
const ReceivedInvoiceSource = "queue"

// ReceivedInvoiceCommand is an external receiving confirmation
type ReceivedInvoiceCommand struct {
	InvoiceNumber string    `json:"numeroNF" validate:"required,max=64"`
	Volume        int       `json:"volumes" validate:"gte=0"`
	ReceivedAt    time.Time `json:"recebidoEm"`
}

// InvoiceProcessor feeds received-invoice confirmations into the packing gate
type InvoiceProcessor struct {
	invoices repository.InvoiceStore
	now      func() time.Time
}

// NewInvoiceProcessor creates a new invoice processor
func NewInvoiceProcessor(invoices repository.InvoiceStore) *InvoiceProcessor {
	return &InvoiceProcessor{
		invoices: invoices,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessMessage handles one message of the received-invoices queue.
// Unknown event types are logged and acknowledged.
func (p *InvoiceProcessor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var msg AzureBusMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	log.Info().Str("eventType", msg.EventType).Str("messageID", message.MessageID).Msg("Processing message")

	switch msg.EventType {
	case InvoiceReceived:
		var cmd ReceivedInvoiceCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			return fmt.Errorf("error unmarshalling %s: %w", msg.EventType, err)
		}
		return p.handleInvoiceReceived(ctx, cmd)
	default:
		log.Warn().Str("eventType", msg.EventType).Msg("Ignoring unsupported event type")
		return nil
	}
}

func (p *InvoiceProcessor) handleInvoiceReceived(ctx context.Context, cmd ReceivedInvoiceCommand) error {
	cmd.InvoiceNumber = strings.TrimSpace(cmd.InvoiceNumber)
	if err := utils.ValidateStruct(cmd); err != nil {
		return fmt.Errorf("invalid %s message: %s", InvoiceReceived, utils.ValidationMessage(err))
	}

	receivedAt := cmd.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = p.now()
	}

	created, err := p.invoices.RecordReceivedInvoice(ctx, &models.ReceivedInvoice{
		InvoiceNumber: cmd.InvoiceNumber,
		Source:        ReceivedInvoiceSource,
		Volume:        cmd.Volume,
		ReceivedAt:    receivedAt,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("invoice", cmd.InvoiceNumber).
		Bool("new", created).
		Msg("Received invoice recorded")
	return nil
}
