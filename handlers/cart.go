package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/cache"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/registry"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/tracing"
)

// PackingResult is returned when a cart starts packing
type PackingResult struct {
	Record domain.PackingRecord `json:"record"`
	Packed CartView             `json:"cart"`
	Next   CartView             `json:"next"`
}

// CartHandler handles all cart-related commands of packing sessions
type CartHandler struct {
	carts   repository.CartStore
	checker *domain.Checker
	cache   Cache
	locks   *SessionLocks
	now     func() time.Time
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts repository.CartStore, checker *domain.Checker, c Cache, locks *SessionLocks) *CartHandler {
	return &CartHandler{
		carts:   carts,
		checker: checker,
		cache:   c,
		locks:   locks,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListCarts returns the session's carts, opening the first one when needed
func (h *CartHandler) ListCarts(ctx context.Context, session domain.Session) ([]CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.ListCarts").End()

	if err := checkPackingArea(session, "list carts"); err != nil {
		return nil, err
	}

	key := cache.SessionCartsKey(session.Key())
	var views []CartView
	if err := h.cache.Get(ctx, key, &views); err == nil {
		return views, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("sessionKey", session.Key()).Msg("Failed to read carts from cache")
	}

	unlock := h.locks.Lock(session.Key())
	defer unlock()

	reg, err := registry.Load(ctx, h.carts, session.Key())
	if err != nil {
		return nil, err
	}

	views = make([]CartView, 0, len(reg.Carts()))
	for _, c := range reg.Carts() {
		views = append(views, NewCartView(c))
	}

	if err := h.cache.Set(ctx, key, views); err != nil {
		log.Warn().Err(err).Str("sessionKey", session.Key()).Msg("Failed to cache carts")
	}
	return views, nil
}

// CreateCart opens a cart, named or auto-named, and makes it active
func (h *CartHandler) CreateCart(ctx context.Context, session domain.Session, name string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.CreateCart").End()

	return h.withRegistry(ctx, session, "create a cart", func(reg *registry.Registry) (*domain.CartAggregate, error) {
		return reg.CreateCart(ctx, name)
	})
}

// SwitchActive makes cartID the session's active cart
func (h *CartHandler) SwitchActive(ctx context.Context, session domain.Session, cartID string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.SwitchActive").End()

	return h.withRegistry(ctx, session, "switch carts", func(reg *registry.Registry) (*domain.CartAggregate, error) {
		if err := reg.SwitchActive(ctx, cartID); err != nil {
			return nil, err
		}
		return reg.Active(), nil
	})
}

// Scan parses, checks and records a raw code in the active cart.
// Rejected scans are recorded too and reported through the result.
func (h *CartHandler) Scan(ctx context.Context, session domain.Session, raw string) (*ScanResult, error) {
	defer tracing.StartSegment(ctx, "CartHandler.Scan").End()

	var outcome domain.Outcome
	view, err := h.withRegistry(ctx, session, "scan into a cart", func(reg *registry.Registry) (*domain.CartAggregate, error) {
		active := reg.Active()
		now := h.now()

		line, err := domain.ParsePacking(raw, now)
		if err != nil {
			outcome = parseRejection(domain.SchemaPacking, raw, err, now)
		} else {
			outcome, err = h.checker.Check(ctx, line, active)
			if err != nil {
				return nil, fmt.Errorf("failed to check scan: %w", err)
			}
		}

		if err := active.AddLine(session.Role, outcome.Line); err != nil {
			return nil, err
		}
		if err := reg.Save(ctx, active); err != nil {
			return nil, err
		}
		return active, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionKey", session.Key()).
		Str("cartID", view.ID).
		Str("invoice", outcome.Line.InvoiceNumber).
		Str("outcome", string(outcome.Kind)).
		Str("status", string(outcome.Line.Status)).
		Msg("Scan recorded")

	result := newScanResult(outcome)
	result.Cart = view
	return result, nil
}

// RemoveLine removes a line from a cart
func (h *CartHandler) RemoveLine(ctx context.Context, session domain.Session, cartID, lineID string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.RemoveLine").End()

	return h.withCart(ctx, session, cartID, "remove a line", func(cart *domain.CartAggregate) error {
		return cart.RemoveLine(session.Role, lineID)
	})
}

// SubmitForReview marks taping done
func (h *CartHandler) SubmitForReview(ctx context.Context, session domain.Session, cartID string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.SubmitForReview").End()

	return h.withCart(ctx, session, cartID, "submit a cart for review", func(cart *domain.CartAggregate) error {
		return cart.SubmitForReview()
	})
}

// FinalizeScan releases a cart for packing
func (h *CartHandler) FinalizeScan(ctx context.Context, session domain.Session, cartID string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.FinalizeScan").End()

	return h.withCart(ctx, session, cartID, "finalize a cart", func(cart *domain.CartAggregate) error {
		return cart.FinalizeScan()
	})
}

// StartPacking moves a released cart into packing and opens its sibling
func (h *CartHandler) StartPacking(ctx context.Context, session domain.Session, cartID string) (*PackingResult, error) {
	defer tracing.StartSegment(ctx, "CartHandler.StartPacking").End()

	if err := checkPackingArea(session, "start packing"); err != nil {
		return nil, err
	}

	unlock := h.locks.Lock(session.Key())
	defer unlock()

	reg, err := registry.Load(ctx, h.carts, session.Key())
	if err != nil {
		return nil, err
	}

	record, next, err := reg.StartPacking(ctx, cartID)
	if err != nil {
		return nil, err
	}
	packed, err := reg.Cart(cartID)
	if err != nil {
		return nil, err
	}

	h.changed(ctx, session, cartID, "packing")

	return &PackingResult{
		Record: record,
		Packed: NewCartView(packed),
		Next:   NewCartView(next),
	}, nil
}

// Complete closes packing of a cart
func (h *CartHandler) Complete(ctx context.Context, session domain.Session, cartID string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.Complete").End()

	return h.withCart(ctx, session, cartID, "complete a cart", func(cart *domain.CartAggregate) error {
		return cart.Complete()
	})
}

// Unpack returns a packing or completed cart to released
func (h *CartHandler) Unpack(ctx context.Context, session domain.Session, cartID string) (*CartView, error) {
	defer tracing.StartSegment(ctx, "CartHandler.Unpack").End()

	return h.withCart(ctx, session, cartID, "unpack a cart", func(cart *domain.CartAggregate) error {
		return cart.Unpack(session.Role)
	})
}

// History returns the stored events of a session's cart, oldest first
func (h *CartHandler) History(ctx context.Context, session domain.Session, cartID string) ([]domain.Event, error) {
	defer tracing.StartSegment(ctx, "CartHandler.History").End()

	cart, err := h.carts.LoadCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Resource: "cart", ID: cartID}
		}
		return nil, err
	}
	if cart.State.SessionKey != session.Key() {
		return nil, &domain.NotFoundError{Resource: "cart", ID: cartID}
	}

	return h.carts.CartHistory(ctx, cartID)
}

// withRegistry runs fn on the session's registry under the session lock and
// publishes the change
func (h *CartHandler) withRegistry(ctx context.Context, session domain.Session, action string, fn func(reg *registry.Registry) (*domain.CartAggregate, error)) (*CartView, error) {
	if err := checkPackingArea(session, action); err != nil {
		return nil, err
	}

	unlock := h.locks.Lock(session.Key())
	defer unlock()

	reg, err := registry.Load(ctx, h.carts, session.Key())
	if err != nil {
		return nil, err
	}

	cart, err := fn(reg)
	if err != nil {
		return nil, err
	}

	h.changed(ctx, session, cart.GetID(), action)

	view := NewCartView(cart)
	return &view, nil
}

// withCart applies fn to one cart of the session and writes it through
func (h *CartHandler) withCart(ctx context.Context, session domain.Session, cartID, action string, fn func(cart *domain.CartAggregate) error) (*CartView, error) {
	return h.withRegistry(ctx, session, action, func(reg *registry.Registry) (*domain.CartAggregate, error) {
		cart, err := reg.Cart(cartID)
		if err != nil {
			return nil, err
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		if err := reg.Save(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	})
}

func (h *CartHandler) changed(ctx context.Context, session domain.Session, cartID, action string) {
	invalidate(ctx, h.cache, cache.Update{
		SessionKey: session.Key(),
		Resource:   ResourceCart,
		ResourceID: cartID,
		Action:     action,
	}, cache.SessionCartsKey(session.Key()))
}

func checkPackingArea(session domain.Session, action string) error {
	if session.Area != domain.AreaPacking {
		return &domain.WrongAreaError{Action: action, Area: session.Area}
	}
	return nil
}

// parseRejection turns a parse failure into a rejected outcome carrying the audit line
func parseRejection(schema domain.Schema, raw string, err error, now time.Time) domain.Outcome {
	outcome := domain.Outcome{
		Kind: domain.Rejected,
		Line: domain.RejectedLine(schema, raw, err, now),
	}
	var kindErr domain.KindError
	if errors.As(err, &kindErr) {
		outcome.Err = kindErr
	}
	return outcome
}
