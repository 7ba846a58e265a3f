package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

var ErrConnectionClosed = errors.New("rabbitmq connection is closed")

type publisher struct {
	conn     Connection
	exchange string

	mu       sync.Mutex
	ch       Channel
	declared bool
}

// NewPublisher mirrors hub events onto a fanout exchange so back-office
// subscribers see the same stream as the terminals.
func NewPublisher(conn Connection, exchange string) interfaces.EventPublisher {
	return &publisher{conn: conn, exchange: exchange}
}

func (p *publisher) PublishEvent(ctx context.Context, event interfaces.Event) error {
	body, err := interfaces.EncodeEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, p.exchange, event.EventType(), false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        event.EventType(),
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		// канал после ошибки непригоден, откроем новый при следующей публикации
		ch.Close()
		p.ch = nil
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (p *publisher) channel() (Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}

	if p.conn.IsClosed() {
		return nil, ErrConnectionClosed
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	if !p.declared {
		if err := ch.ExchangeDeclare(p.exchange, "fanout", true, false, false, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to declare exchange: %w", err)
		}
		p.declared = true
	}

	p.ch = ch
	return ch, nil
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	return p.conn.Close()
}
