package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mochi-server/internal/model"
	"mochi-server/internal/repository"
)

const (
	titleMaxRunes = 30
	titleEllipsis = "..."
)

// SessionStore persists sessions and their append-only transcripts.
type SessionStore interface {
	CreateSession(ctx context.Context, userID, personaID, firstMessage string) (*model.ChatSession, error)
	GetSession(ctx context.Context, sessionID model.ID, userID string) (*model.ChatSession, error)
	AppendMessage(ctx context.Context, sessionID model.ID, role model.Role, content string) (*model.Message, error)
	ListMessages(ctx context.Context, sessionID model.ID) ([]model.Message, error)
	TouchSession(ctx context.Context, sessionID model.ID) error
	ListSessionsForUser(ctx context.Context, userID string) ([]model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID model.ID) error
}

// HistoryCache is optional; a nil cache reads through to the database.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID model.ID) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID model.ID, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID model.ID) error
	MarkDirty(ctx context.Context, sessionID model.ID) error
	IsDirty(ctx context.Context, sessionID model.ID) (bool, error)
}

type DBSessionStore struct {
	sessionRepo  *repository.SessionRepository
	messageRepo  *repository.MessageRepository
	historyCache HistoryCache
	logger       *zap.Logger
	now          func() time.Time
}

func NewDBSessionStore(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	historyCache HistoryCache,
	logger *zap.Logger,
) *DBSessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBSessionStore{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
		logger:       logger,
		now:          time.Now,
	}
}

// SessionTitle keeps the first 30 characters of text and marks truncation
// with "...".
func SessionTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}

func (s *DBSessionStore) CreateSession(ctx context.Context, userID, personaID, firstMessage string) (*model.ChatSession, error) {
	now := s.now().UTC()
	session := &model.ChatSession{
		ID:          model.NewID(),
		UserID:      userID,
		Title:       SessionTitle(firstMessage),
		PersonaID:   personaID,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return session, nil
}

// GetSession reports ErrNotFound both for missing sessions and for sessions
// owned by another user.
func (s *DBSessionStore) GetSession(ctx context.Context, sessionID model.ID, userID string) (*model.ChatSession, error) {
	session, err := s.sessionRepo.GetByIDAndUserID(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return session, nil
}

func (s *DBSessionStore) AppendMessage(ctx context.Context, sessionID model.ID, role model.Role, content string) (*model.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}

	if s.historyCache != nil {
		if err := s.historyCache.MarkDirty(ctx, sessionID); err != nil {
			s.logger.Warn("mark history dirty failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		}
	}

	msg := &model.Message{SessionID: sessionID, Role: role, Content: content}
	if err := s.messageRepo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(ctx, sessionID); err != nil {
			s.logger.Warn("drop cached history failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		}
	}
	return msg, nil
}

// ListMessages returns the full transcript in (timestamp, id) order. Each call
// is a fresh read.
func (s *DBSessionStore) ListMessages(ctx context.Context, sessionID model.ID) ([]model.Message, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, sessionID, messages); err != nil {
				s.logger.Debug("cache history failed", zap.String("session_id", sessionID.String()), zap.Error(err))
			}
		}
	}
	return messages, nil
}

func (s *DBSessionStore) TouchSession(ctx context.Context, sessionID model.ID) error {
	if err := s.sessionRepo.Touch(ctx, sessionID, s.now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

func (s *DBSessionStore) ListSessionsForUser(ctx context.Context, userID string) ([]model.ChatSession, error) {
	sessions, err := s.sessionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return sessions, nil
}

func (s *DBSessionStore) DeleteSession(ctx context.Context, sessionID model.ID) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(ctx, sessionID); err != nil {
			s.logger.Warn("drop cached history failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		}
	}
	return nil
}
