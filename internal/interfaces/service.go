package interfaces

import (
	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

// OrderRegistry is the single owner of the order list
type OrderRegistry interface {
	Create(items []domain.OrderItem) (domain.Order, error)
	AdvanceStatus(orderID int, status domain.Status) (domain.Order, error)
	Cancel(orderID int) (domain.Order, error)
	Orders() []domain.Order
}

// Session is one connected terminal as seen by the hub. Send must not block:
// it fails when the transport cannot take the message right now.
type Session interface {
	ID() string
	Send(msg []byte) error
}
