package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mochi-server/internal/cache"
	"mochi-server/internal/model"
	"mochi-server/internal/repository"
	"mochi-server/internal/repository/repotest"
)

func TestSessionTitle(t *testing.T) {
	thirty := strings.Repeat("a", 30)
	thirtyOne := strings.Repeat("b", 31)

	assert.Equal(t, thirty, SessionTitle(thirty))
	assert.Equal(t, "short", SessionTitle("short"))

	title := SessionTitle(thirtyOne)
	assert.Len(t, title, 33)
	assert.Equal(t, strings.Repeat("b", 30)+"...", title)

	wide := SessionTitle(strings.Repeat("é", 31))
	assert.Equal(t, 33, len([]rune(wide)))
	assert.True(t, strings.HasSuffix(wide, "..."))
}

func TestSessionStoreScopesSessionsToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.store.CreateSession(ctx, userA, "mochi", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", session.Title)
	assert.True(t, session.CreatedAt.Equal(session.LastUpdated))

	got, err := f.store.GetSession(ctx, session.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = f.store.GetSession(ctx, session.ID, "user-b")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.GetSession(ctx, model.NewID(), userA)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStoreListsByLastUpdated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.store.CreateSession(ctx, userA, "mochi", "older")
	require.NoError(t, err)
	newer, err := f.store.CreateSession(ctx, userA, "mochi", "newer")
	require.NoError(t, err)
	_, err = f.store.CreateSession(ctx, "user-b", "mochi", "not mine")
	require.NoError(t, err)

	require.NoError(t, f.store.TouchSession(ctx, older.ID))
	require.NoError(t, f.store.TouchSession(ctx, older.ID))

	sessions, err := f.store.ListSessionsForUser(ctx, userA)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, older.ID, sessions[0].ID)
	assert.Equal(t, newer.ID, sessions[1].ID)
}

func TestSessionStoreAppendRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.AppendMessage(context.Background(), model.NewID(), model.Role("system"), "x")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSessionStoreHistoryCacheInvalidatedOnAppend(t *testing.T) {
	db := repotest.NewDB(t)
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	historyCache := cache.NewHistoryCache(client, time.Minute, time.Second)
	store := NewDBSessionStore(
		repository.NewSessionRepository(db),
		repository.NewMessageRepository(db),
		historyCache,
		zaptest.NewLogger(t),
	)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, userA, "mochi", "hi")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, session.ID, model.RoleUser, "one")
	require.NoError(t, err)

	// Let the dirty marker lapse so the next read fills the cache.
	mr.FastForward(2 * time.Second)
	messages, err := store.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	cached, hit, err := historyCache.GetHistory(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Len(t, cached, 1)

	_, err = store.AppendMessage(ctx, session.ID, model.RoleModel, "two")
	require.NoError(t, err)
	_, hit, err = historyCache.GetHistory(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, hit)

	messages, err = store.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)
}
