package interfaces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

func sampleOrder() domain.Order {
	return domain.Order{
		ID:            12,
		DisplayNumber: 3,
		Items:         []domain.OrderItem{{ProductID: "C", Name: "Item C", UnitPrice: 200, Quantity: 1}},
		Status:        domain.StatusInPreparation,
		Timestamp:     time.Date(2024, 5, 1, 10, 31, 15, 123000000, time.UTC),
	}
}

func TestEncodeEventWireShape(t *testing.T) {
	data, err := EncodeEvent(OrderCreatedEvent{Order: sampleOrder()})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "orderCreated",
		"order": {
			"id": 12,
			"displayNumber": 3,
			"items": [{"id": "C", "name": "Item C", "price": 200, "quantity": 1}],
			"status": "in_preparation",
			"timestamp": "2024-05-01T10:31:15.123Z",
			"cancelled": false
		}
	}`, string(data))

	data, err = EncodeEvent(InitEvent{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"init","orders":[]}`, string(data))

	data, err = EncodeEvent(OrderCancelledEvent{OrderID: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"orderCancelled","orderId":4}`, string(data))
}

func TestDecodeEvent(t *testing.T) {
	data, err := EncodeEvent(OrderUpdatedEvent{Order: sampleOrder()})
	require.NoError(t, err)

	ev, err := DecodeEvent(data)
	require.NoError(t, err)
	updated, ok := ev.(OrderUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, 12, updated.Order.ID)
	assert.True(t, sampleOrder().Timestamp.Equal(updated.Order.Timestamp))

	_, err = DecodeEvent([]byte(`{"type":"bogus"}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)
	_, err = DecodeEvent([]byte(`nope`))
	assert.Error(t, err)
}

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"newOrder","items":[{"id":"A","name":"Item A","price":100,"quantity":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, NewOrderCommand{Items: []domain.OrderItem{{ProductID: "A", Name: "Item A", UnitPrice: 100, Quantity: 2}}}, cmd)

	cmd, err = DecodeCommand([]byte(`{"type":"updateStatus","orderId":5,"status":"served"}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateStatusCommand{OrderID: 5, Status: domain.StatusServed}, cmd)

	cmd, err = DecodeCommand([]byte(`{"type":"cancelOrder","orderId":5}`))
	require.NoError(t, err)
	assert.Equal(t, CancelOrderCommand{OrderID: 5}, cmd)
}

func TestDecodeCommandRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`{`,
		`[]`,
		`{"type":"init","orders":[]}`,
		`{"items":[]}`,
		`{"type":"cancelOrder","orderId":"five"}`,
	} {
		_, err := DecodeCommand([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	data, err := EncodeCommand(UpdateStatusCommand{OrderID: 9, Status: domain.StatusVoucherRedeemed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"updateStatus","orderId":9,"status":"voucher_redeemed"}`, string(data))
}
