package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
)

// DefaultCartPrefix is the display name prefix of auto-created carts
const DefaultCartPrefix = "Carro"

// Registry is the set of carts of one session, exactly one of them active.
// Every mutation is written through to the store before it returns.
type Registry struct {
	sessionKey string
	store      repository.CartStore
	carts      []*domain.CartAggregate
	newID      func() string
}

// Load loads the carts of a session, opening a new cart when none can be worked on
func Load(ctx context.Context, store repository.CartStore, sessionKey string) (*Registry, error) {
	carts, err := store.LoadSessionCarts(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		sessionKey: sessionKey,
		store:      store,
		carts:      carts,
		newID:      func() string { return uuid.New().String() },
	}

	if len(r.carts) == 0 {
		if _, err := r.AutoCreateNext(ctx); err != nil {
			return nil, err
		}
		return r, nil
	}

	if r.Active() == nil {
		// a session always has an active cart, and it must still accept scans
		latest := r.latestOpen()
		if latest == nil {
			if _, err := r.AutoCreateNext(ctx); err != nil {
				return nil, err
			}
			return r, nil
		}
		if err := latest.Activate(); err != nil {
			return nil, err
		}
		if err := r.Save(ctx, latest); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) latestOpen() *domain.CartAggregate {
	for i := len(r.carts) - 1; i >= 0; i-- {
		if !r.carts[i].State.Status.Locked() {
			return r.carts[i]
		}
	}
	return nil
}

// SessionKey returns the key of the session the registry belongs to
func (r *Registry) SessionKey() string {
	return r.sessionKey
}

// Carts returns the carts in creation order
func (r *Registry) Carts() []*domain.CartAggregate {
	return r.carts
}

// Active returns the active cart
func (r *Registry) Active() *domain.CartAggregate {
	for _, c := range r.carts {
		if c.State.Active {
			return c
		}
	}
	return nil
}

// Cart finds a cart of the session by id
func (r *Registry) Cart(cartID string) (*domain.CartAggregate, error) {
	for _, c := range r.carts {
		if c.GetID() == cartID {
			return c, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "cart", ID: cartID}
}

// CreateCart opens a named cart and makes it active
func (r *Registry) CreateCart(ctx context.Context, name string) (*domain.CartAggregate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r.AutoCreateNext(ctx)
	}
	if r.nameTaken(name) {
		return nil, &domain.DuplicateNameError{Name: name}
	}
	return r.open(ctx, name)
}

// SwitchActive deactivates every cart and activates the target
func (r *Registry) SwitchActive(ctx context.Context, cartID string) error {
	target, err := r.Cart(cartID)
	if err != nil {
		return err
	}

	changed, err := r.activate(target)
	if err != nil {
		return err
	}
	return r.Save(ctx, changed...)
}

// AutoCreateNext opens and activates "Carro N", N counting the carts still in
// the working set, skipping names already taken
func (r *Registry) AutoCreateNext(ctx context.Context) (*domain.CartAggregate, error) {
	return r.open(ctx, r.nextName())
}

// StartPacking moves a cart into packing and, as the packed cart leaves the
// working set, opens and activates its sibling. All carts are saved together.
func (r *Registry) StartPacking(ctx context.Context, cartID string) (domain.PackingRecord, *domain.CartAggregate, error) {
	cart, err := r.Cart(cartID)
	if err != nil {
		return domain.PackingRecord{}, nil, err
	}

	record, err := cart.StartPacking()
	if err != nil {
		return domain.PackingRecord{}, nil, err
	}

	next, err := domain.NewCart(r.newID(), r.sessionKey, r.nextName())
	if err != nil {
		return domain.PackingRecord{}, nil, err
	}
	r.carts = append(r.carts, next)

	changed, err := r.activate(next)
	if err != nil {
		return domain.PackingRecord{}, nil, err
	}
	touched := []*domain.CartAggregate{cart}
	for _, c := range changed {
		if c != cart {
			touched = append(touched, c)
		}
	}
	if err := r.Save(ctx, touched...); err != nil {
		return domain.PackingRecord{}, nil, err
	}

	log.Info().
		Str("sessionKey", r.sessionKey).
		Str("cartID", cart.GetID()).
		Str("nextCartID", next.GetID()).
		Int("volume", record.Volume).
		Msg("Cart packing started")

	return record, next, nil
}

// Save writes the given carts through to the store
func (r *Registry) Save(ctx context.Context, carts ...*domain.CartAggregate) error {
	if err := r.store.SaveCarts(ctx, carts...); err != nil {
		return fmt.Errorf("failed to save session %s: %w", r.sessionKey, err)
	}
	return nil
}

func (r *Registry) open(ctx context.Context, name string) (*domain.CartAggregate, error) {
	cart, err := domain.NewCart(r.newID(), r.sessionKey, name)
	if err != nil {
		return nil, err
	}
	r.carts = append(r.carts, cart)

	changed, err := r.activate(cart)
	if err != nil {
		return nil, err
	}
	if err := r.Save(ctx, changed...); err != nil {
		return nil, err
	}
	return cart, nil
}

// activate flips the active flag to target and returns every cart it touched
func (r *Registry) activate(target *domain.CartAggregate) ([]*domain.CartAggregate, error) {
	changed := make([]*domain.CartAggregate, 0, 2)
	for _, c := range r.carts {
		if c == target || !c.State.Active {
			continue
		}
		if err := c.Deactivate(); err != nil {
			return nil, err
		}
		changed = append(changed, c)
	}
	if err := target.Activate(); err != nil {
		return nil, err
	}
	return append(changed, target), nil
}

func (r *Registry) nextName() string {
	working := 0
	for _, c := range r.carts {
		if !c.State.Status.Locked() {
			working++
		}
	}

	n := working + 1
	name := fmt.Sprintf("%s %d", DefaultCartPrefix, n)
	for r.nameTaken(name) {
		n++
		name = fmt.Sprintf("%s %d", DefaultCartPrefix, n)
	}
	return name
}

func (r *Registry) nameTaken(name string) bool {
	key := repository.NameKey(name)
	for _, c := range r.carts {
		if repository.NameKey(c.State.Name) == key {
			return true
		}
	}
	return false
}
