package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mochi-server/internal/app"
	"mochi-server/internal/transport/http/middleware"
	"mochi-server/internal/transport/http/response"
)

const (
	wsMaxMessageBytes = 64 << 10
	wsPingInterval    = 30 * time.Second
	wsWriteTimeout    = 10 * time.Second
	wsPendingRequests = 4
)

type wsFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamWS answers GET /chat/ws. Each text frame from the client is a
// StreamChatRequest; the server replies with the same events as the SSE
// endpoint, one JSON frame per event.
func (h *ChatHandler) StreamWS(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessageBytes)

	// The handshake request context is not cancelled when a hijacked
	// connection drops, so the read loop owns cancellation.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	go h.pingLoop(ctx, conn)

	requests := make(chan StreamChatRequest, wsPendingRequests)
	go h.readLoop(ctx, cancel, conn, requests)

	send := func(event string, data any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(wsFrame{Type: event, Data: data})
	}

	for req := range requests {
		if ctx.Err() != nil {
			return
		}
		exchange, err := h.chatService.BeginExchange(ctx, app.StreamChatInput{
			UserID:    userID,
			SessionID: req.SessionID,
			PersonaID: req.PersonaID,
			Message:   req.Message,
		})
		if err != nil {
			apiErr := classify(err, "start chat failed")
			if sendErr := send(eventError, errorEvent{Code: apiErr.Code, Message: apiErr.Message}); sendErr != nil {
				return
			}
			continue
		}
		h.runExchange(ctx, exchange, send)
	}
}

// readLoop keeps reading while exchanges run so a close frame or a dropped
// socket cancels the in-flight exchange instead of waiting for the next write.
func (h *ChatHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, requests chan<- StreamChatRequest) {
	defer close(requests)
	defer cancel()

	for {
		var req StreamChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket closed", zap.Error(err))
			}
			return
		}
		select {
		case requests <- req:
		case <-ctx.Done():
			return
		}
	}
}

func (h *ChatHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
