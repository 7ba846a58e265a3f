package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestPublishEventKeysByOrderID(t *testing.T) {
	w := &fakeWriter{}
	pub := NewPublisher(w)
	ctx := context.Background()

	order := domain.Order{ID: 42, DisplayNumber: 2, Status: domain.StatusReceived}
	require.NoError(t, pub.PublishEvent(ctx, interfaces.OrderCreatedEvent{Order: order}))
	require.NoError(t, pub.PublishEvent(ctx, interfaces.OrderCancelledEvent{OrderID: 42}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "42", string(w.msgs[0].Key))
	assert.Equal(t, "42", string(w.msgs[1].Key))
	assert.Equal(t, []byte(interfaces.EventOrderCreated), w.msgs[0].Headers[0].Value)
	assert.JSONEq(t, `{"type":"orderCancelled","orderId":42}`, string(w.msgs[1].Value))

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestPublishEventWrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	pub := NewPublisher(&fakeWriter{err: boom})

	err := pub.PublishEvent(context.Background(), interfaces.OrderCancelledEvent{OrderID: 1})
	require.ErrorIs(t, err, boom)
}
