// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-07

// Package ai provides the reasoning backends: Gemini through generative-ai-go
// and OpenAI through openai-go.
package ai

import (
	"fmt"
	"os"
	"strings"

	"github.com/similigh/simili-triage/internal/reasoning"
)

// Provider identifies the active AI provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.0-flash-lite"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config selects and configures a backend.
type Config struct {
	Provider string // "gemini", "openai" or empty to infer
	APIKey   string
	Model    string
	BaseURL  string // OpenAI-compatible endpoint override
}

// Backend is a reasoning.Backend with an owned client.
type Backend interface {
	reasoning.Backend
	Provider() Provider
	Model() string
	Close() error
}

// ResolveProvider selects provider/key using environment variables and config key.
//
// Selection order:
// 1. If both GEMINI_API_KEY and OPENAI_API_KEY are set, Gemini wins.
// 2. If only one env key is set, that provider is selected.
// 3. If no env keys are set, fallback to config api key.
func ResolveProvider(apiKey string) (Provider, string, error) {
	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	openAIKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	configKey := strings.TrimSpace(apiKey)

	switch {
	case geminiKey != "":
		return ProviderGemini, geminiKey, nil
	case openAIKey != "":
		return ProviderOpenAI, openAIKey, nil
	case configKey != "":
		return inferProviderFromKey(configKey), configKey, nil
	default:
		return "", "", fmt.Errorf("no AI API key found (set GEMINI_API_KEY or OPENAI_API_KEY)")
	}
}

// resolve honours an explicit provider before falling back to ResolveProvider.
func resolve(cfg Config) (Provider, string, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case "":
		return ResolveProvider(cfg.APIKey)
	case ProviderGemini:
		return ProviderGemini, firstNonEmpty(cfg.APIKey, os.Getenv("GEMINI_API_KEY")), nil
	case ProviderOpenAI:
		return ProviderOpenAI, firstNonEmpty(cfg.APIKey, os.Getenv("OPENAI_API_KEY")), nil
	default:
		return "", "", fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

func inferProviderFromKey(apiKey string) Provider {
	// OpenAI keys commonly use sk-* prefixes. Fall back to Gemini for compatibility.
	if strings.HasPrefix(strings.TrimSpace(apiKey), "sk-") {
		return ProviderOpenAI
	}
	return ProviderGemini
}

// New creates the backend selected by cfg.
func New(cfg Config) (Backend, error) {
	provider, key, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("no API key configured for %s", provider)
	}

	switch provider {
	case ProviderGemini:
		return NewGemini(key, modelFor(provider, cfg.Model))
	case ProviderOpenAI:
		return NewOpenAI(key, modelFor(provider, cfg.Model), cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// modelFor keeps an explicit model unless it clearly belongs to the other provider.
func modelFor(provider Provider, model string) string {
	m := strings.TrimSpace(model)
	lower := strings.ToLower(m)
	switch provider {
	case ProviderGemini:
		if m == "" || strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") {
			return DefaultGeminiModel
		}
	case ProviderOpenAI:
		if m == "" || strings.HasPrefix(lower, "gemini") {
			return DefaultOpenAIModel
		}
	}
	return m
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
