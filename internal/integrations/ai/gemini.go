// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-07

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/similigh/simili-triage/internal/reasoning"
)

// GeminiBackend completes prompts with a Gemini model.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend.
func NewGemini(apiKey, model string) (*GeminiBackend, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiBackend{client: client, model: model}, nil
}

// Complete implements reasoning.Backend with a single GenerateContent call.
func (g *GeminiBackend) Complete(ctx context.Context, prompt string, opts reasoning.CompletionOptions) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", withStatus(fmt.Errorf("gemini generate content: %w", err), statusCode(err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from LLM")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// Provider returns ProviderGemini.
func (g *GeminiBackend) Provider() Provider { return ProviderGemini }

// Model returns the resolved model.
func (g *GeminiBackend) Model() string { return g.model }

// Close closes the Gemini client.
func (g *GeminiBackend) Close() error {
	return g.client.Close()
}
