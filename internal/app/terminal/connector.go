package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

const ReconnectDelay = 5 * time.Second

var ErrNotConnected = errors.New("not connected to server")

// Connector keeps one websocket connection to the server alive. After any
// disconnect it waits ReconnectDelay and dials again, forever.
type Connector struct {
	url    string
	dialer *websocket.Dialer
	logger logger.Logger
	delay  time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewConnector(url string, logger logger.Logger) *Connector {
	return &Connector{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: logger,
		delay:  ReconnectDelay,
	}
}

// Run delivers every server event to onEvent until ctx ends. Each new
// connection starts with an init event, so onEvent sees a full resync after
// a reconnect.
func (c *Connector) Run(ctx context.Context, onEvent func(interfaces.Event)) error {
	for {
		err := c.runOnce(ctx, onEvent)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("server_disconnected", "Lost connection to server, reconnecting in 5 seconds", "", map[string]interface{}{
			"url":    c.url,
			"reason": err.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *Connector) runOnce(ctx context.Context, onEvent func(interfaces.Event)) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial server: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("server_connected", "Connected to server", "", map[string]interface{}{
		"url": c.url,
	})

	stop := make(chan struct{})
	defer func() {
		close(stop)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		event, err := interfaces.DecodeEvent(data)
		if err != nil {
			c.logger.Error("message_parse_failed", "Failed to parse server message", "", nil, err)
			continue
		}
		onEvent(event)
	}
}

// Send writes one command on the current connection. Commands issued while
// disconnected are not queued.
func (c *Connector) Send(cmd interfaces.Command) error {
	data, err := interfaces.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}
