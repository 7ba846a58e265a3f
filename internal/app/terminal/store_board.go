package terminal

import (
	"fmt"
	"io"
	"sort"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

// StoreBoard is the kitchen view over a Mirror.
type StoreBoard struct {
	mirror        *Mirror
	filter        domain.Status // empty means all
	hideCancelled bool
}

func NewStoreBoard(mirror *Mirror) *StoreBoard {
	return &StoreBoard{mirror: mirror, hideCancelled: true}
}

// SetFilter limits Visible to one stage; pass "" for all stages.
func (b *StoreBoard) SetFilter(status domain.Status) {
	b.filter = status
}

func (b *StoreBoard) SetHideCancelled(hide bool) {
	b.hideCancelled = hide
}

// Visible returns the filtered orders, oldest first.
func (b *StoreBoard) Visible() []domain.Order {
	var out []domain.Order
	for _, o := range b.mirror.Orders() {
		if b.filter != "" && o.Status != b.filter {
			continue
		}
		if b.hideCancelled && o.Cancelled {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

type Badges struct {
	All      int
	ByStatus map[domain.Status]int
}

// Badges counts non-cancelled orders, overall and per stage.
func (b *StoreBoard) Badges() Badges {
	badges := Badges{ByStatus: make(map[domain.Status]int, len(domain.StatusFlow))}
	for _, st := range domain.StatusFlow {
		badges.ByStatus[st] = 0
	}
	for _, o := range b.mirror.Orders() {
		if o.Cancelled {
			continue
		}
		badges.All++
		if _, ok := badges.ByStatus[o.Status]; ok {
			badges.ByStatus[o.Status]++
		}
	}
	return badges
}

// NextStatus is the action offered for an order. Cancelled orders and orders
// at the last stage have none.
func NextStatus(o domain.Order) (domain.Status, bool) {
	if o.Cancelled {
		return "", false
	}
	return o.Status.Next()
}

func (b *StoreBoard) Advance(orderID int) (interfaces.UpdateStatusCommand, bool) {
	o, ok := b.mirror.Find(orderID)
	if !ok {
		return interfaces.UpdateStatusCommand{}, false
	}
	next, ok := NextStatus(o)
	if !ok {
		return interfaces.UpdateStatusCommand{}, false
	}
	return interfaces.UpdateStatusCommand{OrderID: orderID, Status: next}, true
}

func (b *StoreBoard) Cancel(orderID int) (interfaces.CancelOrderCommand, bool) {
	o, ok := b.mirror.Find(orderID)
	if !ok || o.Cancelled {
		return interfaces.CancelOrderCommand{}, false
	}
	return interfaces.CancelOrderCommand{OrderID: orderID}, true
}

func (b *StoreBoard) Render(w io.Writer) error {
	badges := b.Badges()
	if _, err := fmt.Fprintf(w, "All: %d", badges.All); err != nil {
		return err
	}
	for _, st := range domain.StatusFlow {
		fmt.Fprintf(w, " | %s: %d", st.Label(), badges.ByStatus[st])
	}
	fmt.Fprintln(w)

	visible := b.Visible()
	if len(visible) == 0 {
		_, err := fmt.Fprintln(w, "No orders")
		return err
	}

	for _, o := range visible {
		fmt.Fprintf(w, "%s (ID: %d) %s  %s  total %d",
			FormatDisplayNumber(o.DisplayNumber), o.ID, o.Timestamp.Local().Format("15:04"), o.Status.Label(), o.Total())
		switch next, ok := NextStatus(o); {
		case o.Cancelled:
			fmt.Fprint(w, "  [cancelled]")
		case ok:
			fmt.Fprintf(w, "  -> %s", next.Label())
		default:
			fmt.Fprint(w, "  done")
		}
		fmt.Fprintln(w)
		for _, it := range o.Items {
			fmt.Fprintf(w, "    %s x %d = %d\n", it.Name, it.Quantity, it.Subtotal())
		}
	}
	return nil
}
