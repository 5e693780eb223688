package app

import (
	"context"
	"sync"

	"mochi-server/internal/model"
)

// sessionLocks serializes exchanges per session inside one process.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[model.ID]*sessionLock
}

type sessionLock struct {
	ch   chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[model.ID]*sessionLock)}
}

// Acquire blocks until the session is free or ctx is done. The returned
// release func is safe to call more than once.
func (l *sessionLocks) Acquire(ctx context.Context, sessionID model.ID) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[sessionID]
	if !ok {
		lk = &sessionLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.ch
				l.unref(sessionID, lk)
			})
		}, nil
	case <-ctx.Done():
		l.unref(sessionID, lk)
		return nil, ctx.Err()
	}
}

func (l *sessionLocks) unref(sessionID model.ID, lk *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, sessionID)
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
