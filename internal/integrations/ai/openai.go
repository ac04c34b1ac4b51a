package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/similigh/simili-triage/internal/reasoning"
)

// OpenAIBackend completes prompts with an OpenAI chat model or any
// OpenAI-compatible endpoint.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI backend. The client's built-in retries are
// disabled; each Complete call is exactly one request.
func NewOpenAI(apiKey, model, baseURL string) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIBackend{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Complete implements reasoning.Backend.
func (o *OpenAIBackend) Complete(ctx context.Context, prompt string, opts reasoning.CompletionOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &reasoning.BackendError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Provider returns ProviderOpenAI.
func (o *OpenAIBackend) Provider() Provider { return ProviderOpenAI }

// Model returns the resolved model.
func (o *OpenAIBackend) Model() string { return o.model }

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (o *OpenAIBackend) Close() error { return nil }
