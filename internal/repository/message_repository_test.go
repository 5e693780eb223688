package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochi-server/internal/model"
	"mochi-server/internal/repository"
	"mochi-server/internal/repository/repotest"
)

func TestAppendKeepsInsertionOrderWhenClockStalls(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(repotest.NewDB(t))

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repository.SetMessageClock(repo, func() time.Time { return fixed })

	sessionID := model.NewID()
	contents := []string{"one", "two", "three", "four"}
	for i, content := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleModel
		}
		require.NoError(t, repo.Append(ctx, &model.Message{SessionID: sessionID, Role: role, Content: content}))
	}

	got, err := repo.ListBySessionID(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, got, len(contents))
	for i, msg := range got {
		assert.Equal(t, contents[i], msg.Content)
		assert.True(t, msg.Timestamp.Equal(fixed))
	}
}

func TestAppendNeverGoesBackInTime(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(repotest.NewDB(t))

	sessionID := model.NewID()
	later := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repository.SetMessageClock(repo, func() time.Time { return later })
	require.NoError(t, repo.Append(ctx, &model.Message{SessionID: sessionID, Role: model.RoleUser, Content: "first"}))

	// Clock steps backwards.
	repository.SetMessageClock(repo, func() time.Time { return later.Add(-time.Minute) })
	second := &model.Message{SessionID: sessionID, Role: model.RoleModel, Content: "second"}
	require.NoError(t, repo.Append(ctx, second))
	assert.True(t, second.Timestamp.Equal(later))

	// Other sessions are unaffected.
	other := &model.Message{SessionID: model.NewID(), Role: model.RoleUser, Content: "elsewhere"}
	require.NoError(t, repo.Append(ctx, other))
	assert.True(t, other.Timestamp.Equal(later.Add(-time.Minute)))

	got, err := repo.ListBySessionID(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
}
