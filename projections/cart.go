package projections

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v7"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
)

// CartDocument is the searchable snapshot of a cart
type CartDocument struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	SessionKey       string    `json:"session_key"`
	Status           string    `json:"status"`
	FinalDestination string    `json:"destination"`
	Invoices         []string  `json:"invoices"`
	LineCount        int       `json:"line_count"`
	DivergentCount   int       `json:"divergent_count"`
	Volume           int       `json:"volume"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CartProjector keeps the carts index in step with cart snapshots
type CartProjector struct {
	carts         repository.CartStore
	elasticClient *elasticsearch.Client
	cfg           config.ElasticConfig
}

// NewCartProjector creates a new cart projector
func NewCartProjector(carts repository.CartStore, elasticClient *elasticsearch.Client, cfg config.ElasticConfig) *CartProjector {
	return &CartProjector{
		carts:         carts,
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// Name identifies the projector in logs
func (p *CartProjector) Name() string { return "carts-index" }

// Project re-indexes the cart an event belongs to
func (p *CartProjector) Project(ctx context.Context, event domain.Event) error {
	if event.AggregateType != domain.CartAggregateType {
		return nil
	}

	cart, err := p.carts.LoadCart(ctx, event.AggregateID)
	if err != nil {
		return err
	}

	doc := NewCartDocument(cart)
	return indexDocument(ctx, p.elasticClient, config.FormatIndex(p.cfg, CartsIndex), doc.ID, doc)
}

// NewCartDocument builds the index document of a cart
func NewCartDocument(cart *domain.CartAggregate) CartDocument {
	lines := cart.Lines()
	invoices := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.InvoiceNumber == "" || seen[l.InvoiceNumber] {
			continue
		}
		seen[l.InvoiceNumber] = true
		invoices = append(invoices, l.InvoiceNumber)
	}

	return CartDocument{
		ID:               cart.GetID(),
		Name:             cart.State.Name,
		SessionKey:       cart.State.SessionKey,
		Status:           string(cart.State.Status),
		FinalDestination: cart.FinalDestination(),
		Invoices:         invoices,
		LineCount:        len(lines),
		DivergentCount:   cart.DivergentCount(),
		Volume:           cart.AggregateVolume(),
		UpdatedAt:        cart.State.UpdatedAt,
	}
}
