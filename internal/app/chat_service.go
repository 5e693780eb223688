package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mochi-server/internal/ai"
	"mochi-server/internal/config"
	"mochi-server/internal/model"
)

var errExchangeStreamed = errors.New("exchange already streamed")

type exchangeState string

const (
	stateRouting            exchangeState = "ROUTING"
	stateResolvingPersona   exchangeState = "RESOLVING_PERSONA"
	stateLoadingHistory     exchangeState = "LOADING_HISTORY"
	stateCreatingSession    exchangeState = "CREATING_SESSION"
	statePersistingUserMsg  exchangeState = "PERSISTING_USER_MSG"
	stateStreaming          exchangeState = "STREAMING"
	statePersistingModelMsg exchangeState = "PERSISTING_MODEL_MSG"
	stateTouchSession       exchangeState = "TOUCH_SESSION"
	stateDone               exchangeState = "DONE"
	stateFailed             exchangeState = "FAILED"
)

// ChatService runs chat exchanges: one user message in, one streamed model
// reply out, both persisted in order.
type ChatService struct {
	store          SessionStore
	personas       PersonaResolver
	streamer       ai.Streamer
	locks          *sessionLocks
	persistTimeout time.Duration
	logger         *zap.Logger
}

type StreamChatInput struct {
	UserID    string
	SessionID string
	PersonaID string
	Message   string
}

// Exchange is a prepared exchange whose user message is already persisted.
// Call Stream exactly once, or Close to abandon it.
type Exchange struct {
	Session     *model.ChatSession
	Persona     *model.Persona
	UserMessage *model.Message
	NewSession  bool

	svc       *ChatService
	request   ai.ModelRequest
	logger    *zap.Logger
	release   func()
	closeOnce sync.Once
	streamed  atomic.Bool
}

type ExchangeResult struct {
	Session      *model.ChatSession `json:"session"`
	UserMessage  *model.Message     `json:"user_message"`
	ModelMessage *model.Message     `json:"model_message,omitempty"`
	Content      string             `json:"content"`
	Partial      bool               `json:"partial"`
}

func NewChatService(
	store SessionStore,
	personas PersonaResolver,
	streamer ai.Streamer,
	cfg config.ChatConfig,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ChatService{
		store:          store,
		personas:       personas,
		streamer:       streamer,
		persistTimeout: cfg.PersistTimeout(),
		logger:         logger,
	}
	if cfg.SerializeSessions {
		s.locks = newSessionLocks()
	}
	return s
}

// StreamChat runs a whole exchange. Errors returned before onChunk is first
// called left no partial state behind.
func (s *ChatService) StreamChat(ctx context.Context, input StreamChatInput, onChunk func(string) error) (*ExchangeResult, error) {
	exchange, err := s.BeginExchange(ctx, input)
	if err != nil {
		return nil, err
	}
	return exchange.Stream(ctx, onChunk)
}

// BeginExchange routes the request, resolves the persona, loads or creates the
// session and persists the user message. Nothing is streamed yet, so every
// error here can be reported to the caller as a plain request failure.
func (s *ChatService) BeginExchange(ctx context.Context, input StreamChatInput) (*Exchange, error) {
	log := s.logger.With(zap.String("user_id", input.UserID))
	exchange, err := s.beginExchange(ctx, input, log)
	if err != nil {
		log.Debug("chat exchange state", zap.String("state", string(stateFailed)), zap.Error(err))
		return nil, err
	}
	return exchange, nil
}

func (s *ChatService) beginExchange(ctx context.Context, input StreamChatInput, log *zap.Logger) (*Exchange, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrMessageEmpty
	}
	content := input.Message

	log.Debug("chat exchange state", zap.String("state", string(stateRouting)))
	exchange := &Exchange{svc: s, release: func() {}}

	var history []model.Message
	sessionID, parseErr := model.ParseID(input.SessionID)
	if parseErr == nil {
		session, err := s.store.GetSession(ctx, sessionID, input.UserID)
		if err != nil {
			return nil, err
		}

		log.Debug("chat exchange state", zap.String("state", string(stateResolvingPersona)))
		persona, err := s.personas.Resolve(ctx, session.PersonaID, input.UserID)
		if err != nil {
			return nil, err
		}

		if err := exchange.lock(ctx, session.ID); err != nil {
			return nil, err
		}

		log.Debug("chat exchange state", zap.String("state", string(stateLoadingHistory)))
		history, err = s.store.ListMessages(ctx, session.ID)
		if err != nil {
			exchange.Close()
			return nil, err
		}
		exchange.Session = session
		exchange.Persona = persona
	} else {
		personaID := strings.TrimSpace(input.PersonaID)
		if personaID == "" {
			return nil, ErrMissingPersona
		}

		log.Debug("chat exchange state", zap.String("state", string(stateResolvingPersona)))
		persona, err := s.personas.Resolve(ctx, personaID, input.UserID)
		if err != nil {
			return nil, err
		}

		log.Debug("chat exchange state", zap.String("state", string(stateCreatingSession)))
		session, err := s.store.CreateSession(ctx, input.UserID, persona.ID, content)
		if err != nil {
			return nil, err
		}
		exchange.Session = session
		exchange.Persona = persona
		exchange.NewSession = true
	}
	exchange.logger = log.With(zap.String("session_id", exchange.Session.ID.String()))

	exchange.logger.Debug("chat exchange state", zap.String("state", string(statePersistingUserMsg)))
	userMessage, err := s.store.AppendMessage(ctx, exchange.Session.ID, model.RoleUser, content)
	if err != nil {
		exchange.Close()
		if exchange.NewSession {
			s.discardSession(ctx, exchange.Session.ID, log)
		}
		return nil, err
	}
	exchange.UserMessage = userMessage
	exchange.request = ai.Assemble(exchange.Persona, history, content)
	return exchange, nil
}

// discardSession drops a freshly created session whose first message could not
// be written, so no empty chat is left behind.
func (s *ChatService) discardSession(ctx context.Context, sessionID model.ID, log *zap.Logger) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()
	if err := s.store.DeleteSession(cleanupCtx, sessionID); err != nil {
		log.Warn("discard empty session failed", zap.String("session_id", sessionID.String()), zap.Error(err))
	}
}

func (e *Exchange) lock(ctx context.Context, sessionID model.ID) error {
	if e.svc.locks == nil {
		return nil
	}
	release, err := e.svc.locks.Acquire(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	}
	e.release = release
	return nil
}

// Request returns the context that will be sent to the model.
func (e *Exchange) Request() ai.ModelRequest {
	return e.request
}

// Close releases the session for other exchanges. Stream calls it itself.
func (e *Exchange) Close() {
	e.closeOnce.Do(func() {
		e.release()
	})
}

// Stream forwards model chunks to onChunk as they arrive, then persists the
// accumulated reply. Content produced before a provider failure or a caller
// disconnect is persisted as well. A failing onChunk is treated as the caller
// going away.
func (e *Exchange) Stream(ctx context.Context, onChunk func(string) error) (*ExchangeResult, error) {
	defer e.Close()
	if !e.streamed.CompareAndSwap(false, true) {
		return nil, errExchangeStreamed
	}

	e.logger.Debug("chat exchange state", zap.String("state", string(stateStreaming)))
	var (
		acc     strings.Builder
		sinkErr error
	)
	streamErr := e.svc.streamer.StreamGenerate(ctx, e.request, func(chunk string) error {
		if chunk == "" {
			return nil
		}
		acc.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			sinkErr = err
			return err
		}
		return nil
	})

	result := &ExchangeResult{
		Session:     e.Session,
		UserMessage: e.UserMessage,
		Content:     acc.String(),
	}

	var streamFailure error
	switch {
	case streamErr == nil:
	case sinkErr != nil || ctx.Err() != nil:
		streamFailure = fmt.Errorf("%w: %v", ErrCanceled, streamErr)
	default:
		streamFailure = fmt.Errorf("%w: %v", ErrProvider, streamErr)
	}
	result.Partial = streamFailure != nil

	if result.Content == "" {
		e.finish(streamFailure)
		return result, streamFailure
	}

	// The caller may already be gone; the reply is still written.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.svc.persistTimeout)
	defer cancel()

	e.logger.Debug("chat exchange state", zap.String("state", string(statePersistingModelMsg)),
		zap.Int("content_len", len(result.Content)), zap.Bool("partial", result.Partial))
	modelMessage, err := e.svc.store.AppendMessage(persistCtx, e.Session.ID, model.RoleModel, result.Content)
	if err != nil {
		err = errors.Join(streamFailure, err)
		e.finish(err)
		return result, err
	}
	result.ModelMessage = modelMessage

	e.logger.Debug("chat exchange state", zap.String("state", string(stateTouchSession)))
	if err := e.svc.store.TouchSession(persistCtx, e.Session.ID); err != nil {
		e.logger.Warn("touch session failed", zap.Error(err))
	}

	e.finish(streamFailure)
	return result, streamFailure
}

func (e *Exchange) finish(err error) {
	if err != nil {
		e.logger.Debug("chat exchange state", zap.String("state", string(stateFailed)), zap.Error(err))
		return
	}
	e.logger.Debug("chat exchange state", zap.String("state", string(stateDone)))
}

func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.store.ListSessionsForUser(ctx, userID)
}

// ListMessages returns a session transcript for its owner.
func (s *ChatService) ListMessages(ctx context.Context, userID, rawSessionID string) ([]model.Message, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	sessionID, err := model.ParseID(rawSessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session id %q", ErrInvalidIdentifier, rawSessionID)
	}
	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, session.ID)
}
