package terminal

import (
	"sync"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

// Mirror is a terminal's local copy of the server order list, kept in sync by
// applying hub events in arrival order.
type Mirror struct {
	mu     sync.RWMutex
	orders []domain.Order
}

func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply folds one event into the local list. It reports whether anything
// changed; updates and cancels for unknown ids are ignored.
func (m *Mirror) Apply(event interfaces.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := event.(type) {
	case interfaces.InitEvent:
		m.orders = make([]domain.Order, 0, len(e.Orders))
		for _, o := range e.Orders {
			m.orders = append(m.orders, o.Clone())
		}
		return true

	case interfaces.OrderCreatedEvent:
		m.orders = append(m.orders, e.Order.Clone())
		return true

	case interfaces.OrderUpdatedEvent:
		if i := m.index(e.Order.ID); i >= 0 {
			m.orders[i] = e.Order.Clone()
			return true
		}
		return false

	case interfaces.OrderCancelledEvent:
		if i := m.index(e.OrderID); i >= 0 {
			m.orders[i].Cancel()
			return true
		}
		return false
	}

	return false
}

func (m *Mirror) index(id int) int {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Orders returns a copy safe to keep across further Apply calls.
func (m *Mirror) Orders() []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Order, len(m.orders))
	for i := range m.orders {
		out[i] = m.orders[i].Clone()
	}
	return out
}

// Find returns the order with the given id.
func (m *Mirror) Find(id int) (domain.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.index(id); i >= 0 {
		return m.orders[i].Clone(), true
	}
	return domain.Order{}, false
}
