package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/bipagem/database"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/eventstore"
	"example.com/backstage/services/bipagem/models"
)

// cartStore implements CartStore
type cartStore struct {
	db *gorm.DB
	es eventstore.EventStore
}

// NewCartStore creates a new cart store
func NewCartStore(db *gorm.DB, es eventstore.EventStore) CartStore {
	return &cartStore{db: db, es: es}
}

// LoadSessionCarts loads every cart of a session in creation order
func (s *cartStore) LoadSessionCarts(ctx context.Context, sessionKey string) ([]*domain.CartAggregate, error) {
	var rows []models.Cart
	if err := s.db.WithContext(ctx).
		Where("session_key = ?", sessionKey).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load session carts: %w", err)
	}

	carts := make([]*domain.CartAggregate, 0, len(rows))
	for _, row := range rows {
		cart, err := restoreCart(row)
		if err != nil {
			return nil, err
		}
		carts = append(carts, cart)
	}
	return carts, nil
}

// LoadCart loads a cart from its snapshot
func (s *cartStore) LoadCart(ctx context.Context, cartID string) (*domain.CartAggregate, error) {
	var row models.Cart
	if err := s.db.WithContext(ctx).Where("cart_id = ?", cartID).First(&row).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return restoreCart(row)
}

// SaveCarts appends the pending events of every cart and refreshes the
// snapshots in a single transaction
func (s *cartStore) SaveCarts(ctx context.Context, carts ...*domain.CartAggregate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, cart := range carts {
			if len(cart.GetEvents()) == 0 {
				continue
			}

			for _, event := range cart.GetEvents() {
				started, ok := event.Data.(domain.CartPackingStartedEvent)
				if !ok {
					continue
				}
				record, err := toPackingRecordModel(started.Record)
				if err != nil {
					return err
				}
				if err := tx.Create(record).Error; err != nil {
					return fmt.Errorf("failed to save packing record: %w", err)
				}
			}

			if err := s.es.Append(tx, cart); err != nil {
				return err
			}

			row, err := toCartModel(cart)
			if err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "cart_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"name", "name_key", "status", "active", "final_destination",
					"line_count", "volume", "state", "version", "updated_at",
				}),
			}).Create(row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &domain.DuplicateNameError{Name: cart.State.Name}
				}
				return fmt.Errorf("failed to save cart snapshot: %w", err)
			}
		}
		return nil
	})
}

// CartHistory returns the stored events of a cart, oldest first
func (s *cartStore) CartHistory(ctx context.Context, cartID string) ([]domain.Event, error) {
	exists, err := s.es.Exists(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.es.GetEvents(ctx, cartID)
}

// ListPackingRecords returns the packing records of a session
func (s *cartStore) ListPackingRecords(ctx context.Context, sessionKey string) ([]domain.PackingRecord, error) {
	var rows []models.PackingRecord
	if err := s.db.WithContext(ctx).
		Where("session_key = ?", sessionKey).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list packing records: %w", err)
	}

	records := make([]domain.PackingRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.PackingRecord{
			CartID:           row.CartID,
			CartName:         row.CartName,
			SessionKey:       row.SessionKey,
			FinalDestination: row.FinalDestination,
			LineCount:        row.LineCount,
			Volume:           row.Volume,
			StartedAt:        row.StartedAt,
		}
		if err := json.Unmarshal(row.Invoices, &records[i].Invoices); err != nil {
			return nil, fmt.Errorf("failed to decode packing record invoices: %w", err)
		}
	}
	return records, nil
}

// NameKey is the case-insensitive form of a cart name
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func toCartModel(cart *domain.CartAggregate) (*models.Cart, error) {
	state, err := json.Marshal(cart.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart state: %w", err)
	}

	return &models.Cart{
		CartID:           cart.GetID(),
		SessionKey:       cart.State.SessionKey,
		Name:             cart.State.Name,
		NameKey:          NameKey(cart.State.Name),
		Status:           string(cart.State.Status),
		Active:           cart.State.Active,
		FinalDestination: cart.FinalDestination(),
		LineCount:        len(cart.Lines()),
		Volume:           cart.AggregateVolume(),
		State:            state,
		Version:          cart.GetVersion(),
		CreatedAt:        cart.State.CreatedAt,
		UpdatedAt:        cart.State.UpdatedAt,
	}, nil
}

func restoreCart(row models.Cart) (*domain.CartAggregate, error) {
	var state domain.CartState
	if err := json.Unmarshal(row.State, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart %s: %w", row.CartID, err)
	}
	return domain.RestoreCart(state, row.Version), nil
}

func toPackingRecordModel(record domain.PackingRecord) (*models.PackingRecord, error) {
	invoices, err := json.Marshal(record.Invoices)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal packing record: %w", err)
	}
	return &models.PackingRecord{
		CartID:           record.CartID,
		CartName:         record.CartName,
		SessionKey:       record.SessionKey,
		FinalDestination: record.FinalDestination,
		Invoices:         invoices,
		LineCount:        record.LineCount,
		Volume:           record.Volume,
		StartedAt:        record.StartedAt,
	}, nil
}
