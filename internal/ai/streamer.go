package ai

import (
	"context"
	"fmt"

	"mochi-server/internal/config"
)

// Streamer produces a model reply chunk by chunk. onChunk is called in order,
// once per non-empty chunk; a non-nil error from onChunk stops the stream and
// is returned unchanged. A stream cannot be restarted.
type Streamer interface {
	StreamGenerate(ctx context.Context, req ModelRequest, onChunk func(chunk string) error) error
}

// NewStreamer builds the provider named by cfg.Provider.
func NewStreamer(ctx context.Context, cfg config.LLMConfig) (Streamer, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiStreamer(ctx, cfg)
	case "openai", "anthropic":
		return NewLangChainStreamer(cfg)
	case "mock":
		return NewMockStreamer(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
