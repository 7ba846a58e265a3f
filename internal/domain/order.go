package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxDisplayNumber is the size of the cyclic queue-number range shown to customers.
const MaxDisplayNumber = 20

// Order represents one customer transaction at the stall
type Order struct {
	ID            int         `json:"id"`
	DisplayNumber int         `json:"displayNumber"`
	Items         []OrderItem `json:"items"`
	Status        Status      `json:"status"`
	Timestamp     time.Time   `json:"timestamp"`
	Cancelled     bool        `json:"cancelled"`
}

// OrderItem is a line snapshotted from the catalog when the order was taken
type OrderItem struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// NewOrder creates a new order with business rules applied
func NewOrder(id, displayNumber int, items []OrderItem, now time.Time) (*Order, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	snapshot := make([]OrderItem, len(items))
	copy(snapshot, items)

	return &Order{
		ID:            id,
		DisplayNumber: displayNumber,
		Items:         snapshot,
		Status:        InitialStatus(),
		Timestamp:     now.UTC(),
		Cancelled:     false,
	}, nil
}

// ValidateItems applies the line item rules shared by the registry and the reception cart
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least 1 item", ErrValidation)
	}
	for i, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: items[%d] quantity must be at least 1", ErrValidation, i)
		}
	}
	return nil
}

// Total calculates the order amount; it is never stored
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// IsActive reports whether the order still occupies its display number.
func (o *Order) IsActive() bool {
	return !o.Cancelled && !o.Status.IsFinal()
}

// TransitionTo moves the order to newStatus. Cancelled orders never change.
func (o *Order) TransitionTo(newStatus Status, policy TransitionPolicy) error {
	if o.Cancelled {
		return fmt.Errorf("%w: order %d is cancelled", ErrNoOp, o.ID)
	}

	if policy != PolicyLegacy {
		next, ok := o.Status.Next()
		if !ok || next != newStatus {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, newStatus)
		}
	}

	o.Status = newStatus
	return nil
}

// Cancel is one-way and idempotent
func (o *Order) Cancel() {
	o.Cancelled = true
}

// Clone returns a deep copy so callers never share the items slice with the registry
func (o Order) Clone() Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// NextDisplayNumber advances the cyclic counter: 1..20, then back to 1.
func NextDisplayNumber(current int) int {
	return (current % MaxDisplayNumber) + 1
}

var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("order not found")
	ErrNoOp                    = errors.New("no state change")
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrNoOp)
)
