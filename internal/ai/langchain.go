package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"mochi-server/internal/config"
)

// LangChainStreamer serves OpenAI-compatible endpoints and Anthropic through
// langchaingo.
type LangChainStreamer struct {
	llm         llms.Model
	temperature *float64
}

func NewLangChainStreamer(cfg config.LLMConfig) (*LangChainStreamer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}

	var (
		llm llms.Model
		err error
	)
	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		llm, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported langchain provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model failed: %w", cfg.Provider, err)
	}

	return &LangChainStreamer{llm: llm, temperature: cfg.Temperature}, nil
}

func (s *LangChainStreamer) StreamGenerate(ctx context.Context, req ModelRequest, onChunk func(string) error) error {
	_, err := s.llm.GenerateContent(ctx, toLangChainMessages(req), s.callOptions(onChunk)...)
	return err
}

func (s *LangChainStreamer) callOptions(onChunk func(string) error) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onChunk(string(chunk))
		}),
	}
	if s.temperature != nil {
		opts = append(opts, llms.WithTemperature(*s.temperature))
	}
	return opts
}

func toLangChainMessages(req ModelRequest) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleModel:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, msg.Content))
	}
	return out
}
