package terminal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

type Product struct {
	ID    string
	Name  string
	Price int64
}

// Reception is the order-entry cart. Quantities never go below zero.
type Reception struct {
	catalog    []Product
	quantities map[string]int
}

func NewReception(catalog []Product) *Reception {
	return &Reception{
		catalog:    catalog,
		quantities: make(map[string]int, len(catalog)),
	}
}

func (r *Reception) product(id string) (Product, error) {
	for _, p := range r.catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: unknown product %q", domain.ErrValidation, id)
}

// Change adds delta to the product quantity, clamping at zero.
func (r *Reception) Change(productID string, delta int) error {
	if _, err := r.product(productID); err != nil {
		return err
	}
	q := r.quantities[productID] + delta
	if q < 0 {
		q = 0
	}
	r.quantities[productID] = q
	return nil
}

func (r *Reception) Set(productID string, quantity int) error {
	if _, err := r.product(productID); err != nil {
		return err
	}
	if quantity < 0 {
		quantity = 0
	}
	r.quantities[productID] = quantity
	return nil
}

func (r *Reception) Quantity(productID string) int {
	return r.quantities[productID]
}

// Lines returns the selected items in catalog order.
func (r *Reception) Lines() []domain.OrderItem {
	var lines []domain.OrderItem
	for _, p := range r.catalog {
		q := r.quantities[p.ID]
		if q <= 0 {
			continue
		}
		lines = append(lines, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  q,
		})
	}
	return lines
}

func (r *Reception) Total() int64 {
	var total int64
	for _, l := range r.Lines() {
		total += l.Subtotal()
	}
	return total
}

func (r *Reception) Clear() {
	r.quantities = make(map[string]int, len(r.catalog))
}

// Submit builds the newOrder command and clears the cart. An empty cart is
// rejected and left as is.
func (r *Reception) Submit() (interfaces.NewOrderCommand, error) {
	return r.SubmitVia(func(interfaces.Command) error { return nil })
}

// SubmitVia hands the newOrder command to send and clears the cart only when
// send succeeds, so an order is never dropped while the server is unreachable.
func (r *Reception) SubmitVia(send func(interfaces.Command) error) (interfaces.NewOrderCommand, error) {
	lines := r.Lines()
	if len(lines) == 0 {
		return interfaces.NewOrderCommand{}, fmt.Errorf("%w: no items selected", domain.ErrValidation)
	}

	cmd := interfaces.NewOrderCommand{Items: lines}
	if err := send(cmd); err != nil {
		return interfaces.NewOrderCommand{}, err
	}
	r.Clear()
	return cmd, nil
}

// Summary renders the cart the way the reception screen lists it.
func (r *Reception) Summary() string {
	var b strings.Builder
	for _, l := range r.Lines() {
		fmt.Fprintf(&b, "%s x %d = %d\n", l.Name, l.Quantity, l.Subtotal())
	}
	fmt.Fprintf(&b, "Total: %d", r.Total())
	return b.String()
}

// Fill sets quantities from a selection like "A=2,C=1".
func (r *Reception) Fill(selection string) error {
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, qty, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("%w: expected ID=QTY, got %q", domain.ErrValidation, part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: bad quantity in %q", domain.ErrValidation, part)
		}
		if err := r.Set(strings.TrimSpace(id), n); err != nil {
			return err
		}
	}
	return nil
}
