package amqp

import (
	"context"
	"fmt"
	"io"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

// NotificationHandler prints every mirrored board event; it backs the
// notification-subscriber mode.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	event, err := interfaces.DecodeEvent(body)
	if err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	line := Describe(event)
	h.logger.Debug("notification_received", line, "", map[string]interface{}{
		"type": event.EventType(),
	})

	fmt.Fprintln(h.out, line)
	return nil
}

// Describe renders an event as one human readable line.
func Describe(event interfaces.Event) string {
	switch e := event.(type) {
	case interfaces.InitEvent:
		return fmt.Sprintf("Snapshot with %d orders", len(e.Orders))
	case interfaces.OrderCreatedEvent:
		return fmt.Sprintf("Order %02d (ID: %d) received, total %d", e.Order.DisplayNumber, e.Order.ID, e.Order.Total())
	case interfaces.OrderUpdatedEvent:
		return fmt.Sprintf("Order %02d (ID: %d) is now '%s'", e.Order.DisplayNumber, e.Order.ID, e.Order.Status.Label())
	case interfaces.OrderCancelledEvent:
		return fmt.Sprintf("Order ID %d cancelled", e.OrderID)
	default:
		return fmt.Sprintf("Unknown event %s", event.EventType())
	}
}
