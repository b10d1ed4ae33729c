package domain

import (
	"time"
)

// nowFunc is the clock used to stamp events
var nowFunc = func() time.Time { return time.Now().UTC() }

// CartState represents the state of a cart
type CartState struct {
	CartID           string        `json:"id"`
	SessionKey       string        `json:"session_key"`
	Name             string        `json:"nome"`
	Status           CartStatus    `json:"status"`
	Lines            []ScannedLine `json:"nfs"`
	Active           bool          `json:"ativo"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	ReleasedAt       *time.Time    `json:"released_at,omitempty"`
	PackingStartedAt *time.Time    `json:"packing_started_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// CartAggregate is the aggregate for a cart
type CartAggregate struct {
	*AggregateBase
	State CartState
}

// NewCartAggregate creates an empty cart aggregate ready to be loaded from the event store
func NewCartAggregate(id string) *CartAggregate {
	aggregate := &CartAggregate{
		State: CartState{CartID: id},
	}

	base := NewAggregateBase(CartAggregateType, aggregate.applyEvent)
	base.SetID(id)
	aggregate.AggregateBase = base

	return aggregate
}

// NewCart opens a cart in the awaiting-taping status
func NewCart(id, sessionKey, name string) (*CartAggregate, error) {
	cart := NewCartAggregate(id)
	if err := cart.Apply(CartCreatedEvent{
		CartID:     id,
		SessionKey: sessionKey,
		Name:       name,
		CreatedAt:  nowFunc(),
	}); err != nil {
		return nil, err
	}
	return cart, nil
}

// RestoreCart rebuilds a cart from a stored snapshot without emitting events
func RestoreCart(state CartState, version int) *CartAggregate {
	cart := NewCartAggregate(state.CartID)
	cart.State = state
	cart.SetVersion(version)
	return cart
}

// applyEvent applies an event to the cart aggregate
func (c *CartAggregate) applyEvent(event interface{}) error {
	switch e := event.(type) {
	case CartCreatedEvent:
		c.State.CartID = e.CartID
		c.State.SessionKey = e.SessionKey
		c.State.Name = e.Name
		c.State.Status = CartAwaitingTaping
		c.State.Lines = []ScannedLine{}
		c.State.CreatedAt = e.CreatedAt
		c.State.UpdatedAt = e.CreatedAt

	case CartLineAddedEvent:
		c.State.Lines = append([]ScannedLine{e.Line}, c.State.Lines...)
		c.State.UpdatedAt = e.Line.ScannedAt

	case CartLineRemovedEvent:
		lines := make([]ScannedLine, 0, len(c.State.Lines))
		for _, l := range c.State.Lines {
			if l.ID != e.LineID {
				lines = append(lines, l)
			}
		}
		c.State.Lines = lines
		c.State.UpdatedAt = e.RemovedAt

	case CartReviewStartedEvent:
		c.State.Status = CartInReview
		c.State.UpdatedAt = e.At

	case CartScanFinalizedEvent:
		c.State.Status = CartReleased
		at := e.At
		c.State.ReleasedAt = &at
		c.State.UpdatedAt = e.At

	case CartPackingStartedEvent:
		c.State.Status = CartPacking
		at := e.Record.StartedAt
		c.State.PackingStartedAt = &at
		c.State.UpdatedAt = at

	case CartCompletedEvent:
		c.State.Status = CartCompleted
		at := e.At
		c.State.CompletedAt = &at
		c.State.UpdatedAt = e.At

	case CartUnpackedEvent:
		c.State.Status = CartReleased
		c.State.PackingStartedAt = nil
		c.State.CompletedAt = nil
		c.State.UpdatedAt = e.At

	case CartActivatedEvent:
		c.State.Active = true

	case CartDeactivatedEvent:
		c.State.Active = false
	}

	return nil
}

// Lines returns the cart lines, most recent first
func (c *CartAggregate) Lines() []ScannedLine {
	return c.State.Lines
}

// DestinationBound is always true for carts
func (c *CartAggregate) DestinationBound() bool {
	return true
}

// FinalDestination is the destination shared by the cart's valid lines
func (c *CartAggregate) FinalDestination() string {
	return destinationOf(c.State.Lines)
}

// AggregateVolume sums the effective volume of valid and destination-mismatch lines
func (c *CartAggregate) AggregateVolume() int {
	return sumVolumes(c.State.Lines)
}

// ValidCount returns the number of fully valid lines
func (c *CartAggregate) ValidCount() int {
	n := 0
	for _, l := range c.State.Lines {
		if l.Status == LineValid {
			n++
		}
	}
	return n
}

// DivergentCount returns the number of lines that block release
func (c *CartAggregate) DivergentCount() int {
	n := 0
	for _, l := range c.State.Lines {
		if l.Divergent() {
			n++
		}
	}
	return n
}

// CanEdit reports whether role may add or remove lines right now
func (c *CartAggregate) CanEdit(role Role) bool {
	return c.checkEditable(role, "edit") == nil
}

func (c *CartAggregate) checkEditable(role Role, action string) error {
	if c.State.Status.Editable() {
		return nil
	}
	if !role.IsAdmin() {
		return &PermissionDeniedError{Action: action, Status: c.State.Status}
	}
	return &InvalidTransitionError{Action: action, From: c.State.Status}
}

func (c *CartAggregate) checkReleasable() error {
	valid, divergent := c.ValidCount(), c.DivergentCount()
	if valid == 0 || divergent > 0 {
		return &DivergencePresentError{CartID: c.GetID(), Divergent: divergent, ValidLines: valid}
	}
	return nil
}

// AddLine records a scanned line, whatever its validation status
func (c *CartAggregate) AddLine(role Role, line ScannedLine) error {
	if err := c.checkEditable(role, "add a line"); err != nil {
		return err
	}
	return c.Apply(CartLineAddedEvent{Line: line})
}

// RemoveLine removes a line by id
func (c *CartAggregate) RemoveLine(role Role, lineID string) error {
	if err := c.checkEditable(role, "remove a line"); err != nil {
		return err
	}
	for _, l := range c.State.Lines {
		if l.ID == lineID {
			return c.Apply(CartLineRemovedEvent{LineID: lineID, RemovedBy: role, RemovedAt: nowFunc()})
		}
	}
	return &NotFoundError{Resource: "line", ID: lineID}
}

// SubmitForReview moves a taped cart into review
func (c *CartAggregate) SubmitForReview() error {
	switch c.State.Status {
	case CartInReview:
		return nil
	case CartAwaitingTaping:
		return c.Apply(CartReviewStartedEvent{At: nowFunc()})
	}
	return &InvalidTransitionError{Action: "submit for review", From: c.State.Status}
}

// FinalizeScan releases the cart. Calling it on a released cart is a no-op.
func (c *CartAggregate) FinalizeScan() error {
	switch c.State.Status {
	case CartReleased:
		return nil
	case CartAwaitingTaping, CartInReview:
	default:
		return &InvalidTransitionError{Action: "finalize scan of", From: c.State.Status}
	}

	if err := c.checkReleasable(); err != nil {
		return err
	}

	return c.Apply(CartScanFinalizedEvent{
		ValidLines: c.ValidCount(),
		Volume:     c.AggregateVolume(),
		At:         nowFunc(),
	})
}

// StartPacking moves a released cart into packing and returns the packing record
func (c *CartAggregate) StartPacking() (PackingRecord, error) {
	if c.State.Status != CartReleased {
		return PackingRecord{}, &InvalidTransitionError{Action: "start packing", From: c.State.Status}
	}
	if err := c.checkReleasable(); err != nil {
		return PackingRecord{}, err
	}

	invoices := make([]string, 0, len(c.State.Lines))
	for i := len(c.State.Lines) - 1; i >= 0; i-- {
		if c.State.Lines[i].Status.Counted() {
			invoices = append(invoices, c.State.Lines[i].InvoiceNumber)
		}
	}

	record := PackingRecord{
		CartID:           c.GetID(),
		CartName:         c.State.Name,
		SessionKey:       c.State.SessionKey,
		FinalDestination: c.FinalDestination(),
		Invoices:         invoices,
		LineCount:        len(invoices),
		Volume:           c.AggregateVolume(),
		StartedAt:        nowFunc(),
	}
	if err := c.Apply(CartPackingStartedEvent{Record: record}); err != nil {
		return PackingRecord{}, err
	}
	return record, nil
}

// Complete closes packing
func (c *CartAggregate) Complete() error {
	if c.State.Status != CartPacking {
		return &InvalidTransitionError{Action: "complete", From: c.State.Status}
	}
	return c.Apply(CartCompletedEvent{At: nowFunc()})
}

// Unpack reverses packing or completed back to released. Admin only.
func (c *CartAggregate) Unpack(role Role) error {
	if !role.IsAdmin() {
		return &PermissionDeniedError{Action: "unpack"}
	}
	if !c.State.Status.Locked() {
		return &InvalidTransitionError{Action: "unpack", From: c.State.Status}
	}
	return c.Apply(CartUnpackedEvent{From: c.State.Status, At: nowFunc()})
}

// Activate marks the cart as the session's active cart
func (c *CartAggregate) Activate() error {
	if c.State.Active {
		return nil
	}
	return c.Apply(CartActivatedEvent{At: nowFunc()})
}

// Deactivate clears the active flag
func (c *CartAggregate) Deactivate() error {
	if !c.State.Active {
		return nil
	}
	return c.Apply(CartDeactivatedEvent{At: nowFunc()})
}
