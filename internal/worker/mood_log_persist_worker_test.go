package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochi-server/internal/model"
)

type fakeDelivery struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Ack(bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_ bool, requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

type fakeStore struct {
	err     error
	created []model.MoodLog
}

func (s *fakeStore) Create(_ context.Context, entry *model.MoodLog) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *entry)
	return nil
}

func moodPayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(model.MoodLog{
		ID:        model.NewID(),
		UserID:    "user-1",
		Score:     7,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	return body
}

func TestHandlePersistsAndAcks(t *testing.T) {
	store := &fakeStore{}
	w := NewMoodLogPersistWorker(nil, store, "mood.log.persist", nil)
	d := &fakeDelivery{}

	w.handle(context.Background(), d, moodPayload(t))

	assert.True(t, d.acked)
	assert.False(t, d.nacked)
	require.Len(t, store.created, 1)
	assert.Equal(t, 7, store.created[0].Score)
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	w := NewMoodLogPersistWorker(nil, store, "mood.log.persist", nil)

	for _, body := range [][]byte{[]byte("{"), []byte(`{"score":3}`)} {
		d := &fakeDelivery{}
		w.handle(context.Background(), d, body)
		assert.True(t, d.nacked)
		assert.False(t, d.requeue)
	}
	assert.Empty(t, store.created)
}

func TestHandleRequeuesStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	w := NewMoodLogPersistWorker(nil, store, "mood.log.persist", nil)
	d := &fakeDelivery{}

	w.handle(context.Background(), d, moodPayload(t))

	assert.True(t, d.nacked)
	assert.True(t, d.requeue)
	assert.False(t, d.acked)
}
