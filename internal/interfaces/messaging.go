package interfaces

import (
	"context"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

// Wire type tags
const (
	EventInit           = "init"
	EventOrderCreated   = "orderCreated"
	EventOrderUpdated   = "orderUpdated"
	EventOrderCancelled = "orderCancelled"

	CommandNewOrder     = "newOrder"
	CommandUpdateStatus = "updateStatus"
	CommandCancelOrder  = "cancelOrder"
)

// Event is a server -> terminal message. The set of implementations is closed.
type Event interface {
	EventType() string
	isEvent()
}

type InitEvent struct {
	Orders []domain.Order
}

type OrderCreatedEvent struct {
	Order domain.Order
}

// OrderUpdatedEvent carries the full replacement record, not a diff.
type OrderUpdatedEvent struct {
	Order domain.Order
}

// OrderCancelledEvent carries only the id; terminals flip the flag on their copy.
type OrderCancelledEvent struct {
	OrderID int
}

func (InitEvent) EventType() string           { return EventInit }
func (OrderCreatedEvent) EventType() string   { return EventOrderCreated }
func (OrderUpdatedEvent) EventType() string   { return EventOrderUpdated }
func (OrderCancelledEvent) EventType() string { return EventOrderCancelled }

func (InitEvent) isEvent()           {}
func (OrderCreatedEvent) isEvent()   {}
func (OrderUpdatedEvent) isEvent()   {}
func (OrderCancelledEvent) isEvent() {}

// Command is a terminal -> server message. The set of implementations is closed.
type Command interface {
	CommandType() string
	isCommand()
}

type NewOrderCommand struct {
	Items []domain.OrderItem
}

type UpdateStatusCommand struct {
	OrderID int
	Status  domain.Status
}

type CancelOrderCommand struct {
	OrderID int
}

func (NewOrderCommand) CommandType() string     { return CommandNewOrder }
func (UpdateStatusCommand) CommandType() string { return CommandUpdateStatus }
func (CancelOrderCommand) CommandType() string  { return CommandCancelOrder }

func (NewOrderCommand) isCommand()     {}
func (UpdateStatusCommand) isCommand() {}
func (CancelOrderCommand) isCommand()  {}

// EventPublisher mirrors broadcast events to an external broker
type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
	Close() error
}

type EventConsumer interface {
	ConsumeEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(ctx context.Context, body []byte) error
