package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/metrics"
	"github.com/YelzhanWeb/stall-orders/internal/app/hub"
	"github.com/YelzhanWeb/stall-orders/internal/app/registry"
	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

type memStore struct{}

func (memStore) Load(context.Context) ([]domain.Order, error) { return nil, nil }
func (memStore) Save(context.Context, []domain.Order) error   { return nil }
func (memStore) Close() error                                 { return nil }

func newServer(t *testing.T, allowAnyOrigin bool) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	reg, err := registry.New(ctx, memStore{}, logger.Nop())
	require.NoError(t, err)
	h := hub.NewService(reg, metrics.New(prometheus.NewRegistry()), logger.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Run(ctx)
	}()

	srv := httptest.NewServer(NewHandler(h, logger.Nop(), allowAnyOrigin, 16))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) interfaces.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	ev, err := interfaces.DecodeEvent(data)
	require.NoError(t, err)
	return ev
}

func TestNewConnectionReceivesInit(t *testing.T) {
	srv := newServer(t, false)
	conn := dial(t, srv, nil)

	ev := readEvent(t, conn)
	snap, ok := ev.(interfaces.InitEvent)
	require.True(t, ok, "first message must be init, got %T", ev)
	assert.Empty(t, snap.Orders)
}

func TestCommandIsBroadcastToOtherTerminals(t *testing.T) {
	srv := newServer(t, false)
	reception := dial(t, srv, nil)
	display := dial(t, srv, nil)
	readEvent(t, reception)
	readEvent(t, display)

	require.NoError(t, reception.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"newOrder","items":[{"id":"A","name":"Item A","price":100,"quantity":2}]}`)))

	for _, conn := range []*websocket.Conn{reception, display} {
		created, ok := readEvent(t, conn).(interfaces.OrderCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, 1, created.Order.ID)
		assert.Equal(t, 1, created.Order.DisplayNumber)
		assert.Equal(t, int64(200), created.Order.Total())
	}
}

func TestMalformedMessageKeepsConnectionOpen(t *testing.T) {
	srv := newServer(t, false)
	conn := dial(t, srv, nil)
	readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"cancelOrder","orderId":42}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"newOrder","items":[{"id":"C","name":"Item C","price":200,"quantity":1}]}`)))

	// nothing from the first three; the order shows up next
	_, ok := readEvent(t, conn).(interfaces.OrderCreatedEvent)
	assert.True(t, ok)
}

func TestCrossOriginRejectedUnlessAllowed(t *testing.T) {
	header := http.Header{"Origin": []string{"http://elsewhere.example"}}

	strict := newServer(t, false)
	url := "ws" + strings.TrimPrefix(strict.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	open := newServer(t, true)
	conn := dial(t, open, header)
	_, ok := readEvent(t, conn).(interfaces.InitEvent)
	assert.True(t, ok)
}

func TestSessionSendAfterCloseFails(t *testing.T) {
	s := &Session{id: "x", send: make(chan []byte, 1)}

	require.NoError(t, s.Send([]byte("a")))
	assert.ErrorIs(t, s.Send([]byte("b")), ErrNotWritable)

	s.close()
	s.close()
	assert.ErrorIs(t, s.Send([]byte("c")), ErrSessionClosed)
}
