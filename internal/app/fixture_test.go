package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mochi-server/internal/ai"
	"mochi-server/internal/catalog"
	"mochi-server/internal/config"
	"mochi-server/internal/model"
	"mochi-server/internal/repository"
	"mochi-server/internal/repository/repotest"
)

type fixture struct {
	store       *DBSessionStore
	personas    *PersonaService
	personaRepo *repository.PersonaRepository
	sessionRepo *repository.SessionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.NewDB(t)

	sessionRepo := repository.NewSessionRepository(db)
	personaRepo := repository.NewPersonaRepository(db)
	store := NewDBSessionStore(sessionRepo, repository.NewMessageRepository(db), nil, zaptest.NewLogger(t))

	// Each read of the clock moves one second forward.
	var mu sync.Mutex
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	return &fixture{
		store:       store,
		personas:    NewPersonaService(catalog.Default(), personaRepo),
		personaRepo: personaRepo,
		sessionRepo: sessionRepo,
	}
}

func (f *fixture) service(t *testing.T, store SessionStore, streamer ai.Streamer) *ChatService {
	t.Helper()
	if store == nil {
		store = f.store
	}
	return NewChatService(store, f.personas, streamer, config.ChatConfig{
		SerializeSessions:     true,
		PersistTimeoutSeconds: 5,
	}, zaptest.NewLogger(t))
}

// scriptedStreamer emits chunks in order, then returns err.
type scriptedStreamer struct {
	chunks []string
	err    error

	mu       sync.Mutex
	requests []ai.ModelRequest
}

func (s *scriptedStreamer) StreamGenerate(ctx context.Context, req ai.ModelRequest, onChunk func(string) error) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	for _, chunk := range s.chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return s.err
}

func (s *scriptedStreamer) lastRequest() ai.ModelRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// failingStore injects failures into an otherwise working store.
type failingStore struct {
	SessionStore
	appendUserErr  error
	appendModelErr error
	touchErr       error
}

func (s *failingStore) AppendMessage(ctx context.Context, sessionID model.ID, role model.Role, content string) (*model.Message, error) {
	if role == model.RoleUser && s.appendUserErr != nil {
		return nil, s.appendUserErr
	}
	if role == model.RoleModel && s.appendModelErr != nil {
		return nil, s.appendModelErr
	}
	return s.SessionStore.AppendMessage(ctx, sessionID, role, content)
}

func (s *failingStore) TouchSession(ctx context.Context, sessionID model.ID) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	return s.SessionStore.TouchSession(ctx, sessionID)
}

func collect(chunks *[]string) func(string) error {
	return func(chunk string) error {
		*chunks = append(*chunks, chunk)
		return nil
	}
}
