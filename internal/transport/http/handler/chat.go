package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mochi-server/internal/app"
	"mochi-server/internal/model"
	"mochi-server/internal/transport/http/middleware"
	"mochi-server/internal/transport/http/response"
)

const (
	eventSession = "session"
	eventDelta   = "delta"
	eventDone    = "done"
	eventError   = "error"
)

type ChatHandler struct {
	chatService *app.ChatService
	logger      *zap.Logger
}

type StreamChatRequest struct {
	Message   string `json:"message" binding:"required,max=8000"`
	SessionID string `json:"session_id"`
	PersonaID string `json:"persona_id"`
}

type sessionEvent struct {
	SessionID  model.ID `json:"session_id"`
	Title      string   `json:"title"`
	PersonaID  string   `json:"persona_id"`
	NewSession bool     `json:"new_session"`
	MessageID  model.ID `json:"user_message_id"`
}

type deltaEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	SessionID model.ID `json:"session_id"`
	MessageID model.ID `json:"message_id,omitempty"`
}

type errorEvent struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	Partial   bool     `json:"partial"`
	MessageID model.ID `json:"message_id,omitempty"`
}

// eventSink delivers one named event to the client.
type eventSink func(event string, data any) error

func NewChatHandler(chatService *app.ChatService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chatService: chatService, logger: logger}
}

// Stream answers POST /chat/stream. Failures detected before the model is
// called are plain JSON errors; once the event stream has started, failures
// arrive as a final error event.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req StreamChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	ctx := c.Request.Context()
	exchange, err := h.chatService.BeginExchange(ctx, app.StreamChatInput{
		UserID:    userID,
		SessionID: req.SessionID,
		PersonaID: req.PersonaID,
		Message:   req.Message,
	})
	if err != nil {
		writeError(c, err, "start chat failed")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.runExchange(ctx, exchange, func(event string, data any) error {
		if err := sse.Encode(c.Writer, sse.Event{Event: event, Data: data}); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
}

// runExchange streams a prepared exchange into send, shared by SSE and
// WebSocket transports.
func (h *ChatHandler) runExchange(ctx context.Context, exchange *app.Exchange, send eventSink) {
	log := h.logger.With(zap.String("session_id", exchange.Session.ID.String()))

	if err := send(eventSession, sessionEvent{
		SessionID:  exchange.Session.ID,
		Title:      exchange.Session.Title,
		PersonaID:  exchange.Session.PersonaID,
		NewSession: exchange.NewSession,
		MessageID:  exchange.UserMessage.ID,
	}); err != nil {
		exchange.Close()
		log.Info("client left before streaming", zap.Error(err))
		return
	}

	result, err := exchange.Stream(ctx, func(chunk string) error {
		return send(eventDelta, deltaEvent{Text: chunk})
	})
	if err != nil {
		if errors.Is(err, app.ErrCanceled) {
			log.Info("chat stream canceled by client", zap.Bool("partial_saved", result != nil && result.ModelMessage != nil))
			return
		}
		log.Warn("chat stream failed", zap.Error(err))

		apiErr := classify(err, "chat stream failed")
		event := errorEvent{Code: apiErr.Code, Message: apiErr.Message}
		if result != nil {
			event.Partial = result.Content != ""
			if result.ModelMessage != nil {
				event.MessageID = result.ModelMessage.ID
			}
		}
		_ = send(eventError, event)
		return
	}

	done := doneEvent{SessionID: exchange.Session.ID}
	if result.ModelMessage != nil {
		done.MessageID = result.ModelMessage.ID
	}
	_ = send(eventDone, done)
}

// ListChats answers GET /chats.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessions, err := h.chatService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "list chats failed")
		return
	}
	if sessions == nil {
		sessions = []model.ChatSession{}
	}
	response.OK(c, sessions)
}

// ListMessages answers GET /chats/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, "session not found")
			return
		}
		writeError(c, err, "list messages failed")
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	response.OK(c, messages)
}
