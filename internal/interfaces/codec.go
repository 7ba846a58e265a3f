package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

var ErrUnknownMessageType = errors.New("unknown message type")

type envelope struct {
	Type string `json:"type"`
}

type initMessage struct {
	Type   string         `json:"type"`
	Orders []domain.Order `json:"orders"`
}

type orderMessage struct {
	Type  string       `json:"type"`
	Order domain.Order `json:"order"`
}

type orderIDMessage struct {
	Type    string `json:"type"`
	OrderID int    `json:"orderId"`
}

type newOrderMessage struct {
	Type  string             `json:"type"`
	Items []domain.OrderItem `json:"items"`
}

type updateStatusMessage struct {
	Type    string        `json:"type"`
	OrderID int           `json:"orderId"`
	Status  domain.Status `json:"status"`
}

// EncodeEvent serializes an event into its wire JSON form
func EncodeEvent(event Event) ([]byte, error) {
	var msg any
	switch e := event.(type) {
	case InitEvent:
		orders := e.Orders
		if orders == nil {
			orders = []domain.Order{}
		}
		msg = initMessage{Type: EventInit, Orders: orders}
	case OrderCreatedEvent:
		msg = orderMessage{Type: EventOrderCreated, Order: e.Order}
	case OrderUpdatedEvent:
		msg = orderMessage{Type: EventOrderUpdated, Order: e.Order}
	case OrderCancelledEvent:
		msg = orderIDMessage{Type: EventOrderCancelled, OrderID: e.OrderID}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, event)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	switch env.Type {
	case EventInit:
		var m initMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return InitEvent{Orders: m.Orders}, nil
	case EventOrderCreated, EventOrderUpdated:
		var m orderMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		if env.Type == EventOrderCreated {
			return OrderCreatedEvent{Order: m.Order}, nil
		}
		return OrderUpdatedEvent{Order: m.Order}, nil
	case EventOrderCancelled:
		var m orderIDMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return OrderCancelledEvent{OrderID: m.OrderID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

func EncodeCommand(cmd Command) ([]byte, error) {
	var msg any
	switch c := cmd.(type) {
	case NewOrderCommand:
		msg = newOrderMessage{Type: CommandNewOrder, Items: c.Items}
	case UpdateStatusCommand:
		msg = updateStatusMessage{Type: CommandUpdateStatus, OrderID: c.OrderID, Status: c.Status}
	case CancelOrderCommand:
		msg = orderIDMessage{Type: CommandCancelOrder, OrderID: c.OrderID}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, cmd)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	return data, nil
}

// DecodeCommand parses an inbound terminal message
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	switch env.Type {
	case CommandNewOrder:
		var m newOrderMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return NewOrderCommand{Items: m.Items}, nil
	case CommandUpdateStatus:
		var m updateStatusMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return UpdateStatusCommand{OrderID: m.OrderID, Status: m.Status}, nil
	case CommandCancelOrder:
		var m orderIDMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
		}
		return CancelOrderCommand{OrderID: m.OrderID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}
