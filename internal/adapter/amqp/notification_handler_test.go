package amqp

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
)

func TestHandleNotificationPrintsEvent(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(logger.Nop(), &out)

	body := []byte(`{"type":"orderUpdated","order":{"id":12,"displayNumber":3,"items":[],"status":"served","timestamp":"2024-05-01T10:00:00Z","cancelled":false}}`)
	require.NoError(t, h.HandleNotification(context.Background(), body))
	assert.Equal(t, "Order 03 (ID: 12) is now 'Served'\n", out.String())
}

func TestHandleNotificationRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(logger.Nop(), &out)

	require.Error(t, h.HandleNotification(context.Background(), []byte("nope")))
	require.Error(t, h.HandleNotification(context.Background(), []byte(`{"type":"teleport"}`)))
	assert.Empty(t, out.String())
}
