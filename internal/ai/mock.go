package ai

import (
	"context"
	"strings"
	"time"
)

// MockStreamer answers without a provider, for local development.
type MockStreamer struct {
	delay time.Duration
}

func NewMockStreamer() *MockStreamer {
	return &MockStreamer{delay: 40 * time.Millisecond}
}

func (m *MockStreamer) StreamGenerate(ctx context.Context, req ModelRequest, onChunk func(string) error) error {
	var last string
	if n := len(req.Messages); n > 0 {
		last = req.Messages[n-1].Content
	}
	reply := "I hear you. You said: " + last

	for i, word := range strings.Fields(reply) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			word = " " + word
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
		if err := onChunk(word); err != nil {
			return err
		}
	}
	return nil
}
