package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"mochi-server/internal/config"
)

type GeminiStreamer struct {
	client      *genai.Client
	model       string
	temperature *float32
}

func NewGeminiStreamer(ctx context.Context, cfg config.LLMConfig) (*GeminiStreamer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client failed: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	return &GeminiStreamer{client: client, model: model, temperature: temperature}, nil
}

func (g *GeminiStreamer) StreamGenerate(ctx context.Context, req ModelRequest, onChunk func(string) error) error {
	system, turns := req.System()

	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	genCfg := &genai.GenerateContentConfig{Temperature: g.temperature}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, genCfg) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if err := onChunk(text); err != nil {
			return err
		}
	}
	return nil
}
