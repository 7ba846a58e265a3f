package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

// Hub is the part of the broadcast hub the transport drives.
type Hub interface {
	Connect(ctx context.Context, session interfaces.Session) error
	Disconnect(ctx context.Context, session interfaces.Session) error
	Submit(ctx context.Context, session interfaces.Session, cmd interfaces.Command) error
}

type Handler struct {
	hub        Hub
	logger     logger.Logger
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewHandler(hub Hub, logger logger.Logger, allowAnyOrigin bool, sendBuffer int) *Handler {
	h := &Handler{
		hub:        hub,
		logger:     logger,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	// nil CheckOrigin means gorilla enforces same-origin
	if allowAnyOrigin {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Error("ws_upgrade_failed", "WebSocket upgrade failed", "", map[string]interface{}{
			"remote": r.RemoteAddr,
		}, err)
		return
	}

	session := newSession(conn, h.sendBuffer)
	go session.writePump()

	// the request context is cancelled when ServeHTTP returns, which only
	// happens after the read loop ends
	ctx := r.Context()
	if err := h.hub.Connect(ctx, session); err != nil {
		h.logger.Error("hub_connect_failed", "Hub refused the session", session.ID(), nil, err)
		session.close()
		return
	}

	h.readLoop(ctx, session)

	if err := h.hub.Disconnect(context.Background(), session); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("hub_disconnect_failed", "Hub already stopped", session.ID(), nil)
	}
	session.close()
}

func (h *Handler) readLoop(ctx context.Context, session *Session) {
	conn := session.conn
	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Debug("ws_read_failed", "Connection dropped", session.ID(), map[string]interface{}{
					"reason": err.Error(),
				})
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		cmd, err := interfaces.DecodeCommand(data)
		if err != nil {
			// malformed input is dropped; the connection stays open
			h.logger.Error("message_parse_failed", "Failed to parse terminal message", session.ID(), map[string]interface{}{
				"size": len(data),
			}, err)
			continue
		}

		if err := h.hub.Submit(ctx, session, cmd); err != nil {
			h.logger.Error("hub_submit_failed", "Hub did not accept the command", session.ID(), nil, err)
			return
		}
	}
}
