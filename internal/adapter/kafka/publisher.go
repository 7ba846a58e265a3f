package kafka

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type publisher struct {
	writer Writer
}

// ParseBrokers splits a comma separated broker list, skipping blanks.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewPublisher keys every message by order id so one order's events stay on one partition.
func NewPublisher(writer Writer) interfaces.EventPublisher {
	return &publisher{writer: writer}
}

func (p *publisher) PublishEvent(ctx context.Context, event interfaces.Event) error {
	body, err := interfaces.EncodeEvent(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(messageKey(event)),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *publisher) Close() error {
	return p.writer.Close()
}

func messageKey(event interfaces.Event) string {
	switch e := event.(type) {
	case interfaces.OrderCreatedEvent:
		return strconv.Itoa(e.Order.ID)
	case interfaces.OrderUpdatedEvent:
		return strconv.Itoa(e.Order.ID)
	case interfaces.OrderCancelledEvent:
		return strconv.Itoa(e.OrderID)
	default:
		return event.EventType()
	}
}
