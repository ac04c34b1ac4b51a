// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-11

// Package config handles loading and merging Simili Triage configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/similigh/simili-triage/internal/notify"
)

// Defaults applied by applyDefaults.
const (
	DefaultTimeoutSeconds  = 5
	DefaultTemperature     = 0.3
	DefaultMaxTokens       = 1024
	DefaultHistoryLimit    = 50
	DefaultMaxAlternatives = 3
	DefaultMinConfidence   = 60
	DefaultDigestSize      = 10
	DefaultConcurrency     = 1
	MaxConcurrency         = 5
	DefaultWorkflow        = "full-triage"
)

// Config is the root configuration structure.
type Config struct {
	// Extends allows inheriting from a remote config (e.g., "org/repo@branch").
	Extends string `yaml:"extends,omitempty"`

	// LLM configures the reasoning backend.
	LLM LLMConfig `yaml:"llm"`

	// GitHub configures the GitHub-backed issue store.
	GitHub GitHubConfig `yaml:"github"`

	Assignment    AssignmentConfig    `yaml:"assignment"`
	Tagging       TaggingConfig       `yaml:"tagging"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Bulk          BulkConfig          `yaml:"bulk"`

	// Workflow is a preset workflow name (e.g., "full-triage").
	Workflow string `yaml:"workflow,omitempty"`

	// Steps is a custom list of pipeline steps (overrides workflow).
	Steps []string `yaml:"steps,omitempty"`

	// SkipLabels makes the gatekeeper skip issues carrying any of these labels.
	SkipLabels []string `yaml:"skip_labels,omitempty"`
}

// LLMConfig holds reasoning backend settings. An empty provider is resolved
// from the available API keys.
type LLMConfig struct {
	Provider       string  `yaml:"provider,omitempty"`
	APIKey         string  `yaml:"api_key,omitempty"`
	Model          string  `yaml:"model,omitempty"`
	BaseURL        string  `yaml:"base_url,omitempty"`
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
	MaxTokens      int     `yaml:"max_tokens,omitempty"`
}

// Timeout returns the per-call timeout as a duration.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// GitHubConfig holds GitHub connection settings.
type GitHubConfig struct {
	Token   string `yaml:"token,omitempty"`
	Org     string `yaml:"org,omitempty"`
	Repo    string `yaml:"repo,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// Project returns "org/repo" when both are set.
func (g GitHubConfig) Project() string {
	if g.Org == "" || g.Repo == "" {
		return ""
	}
	return g.Org + "/" + g.Repo
}

// AssignmentConfig tunes auto-assignment.
type AssignmentConfig struct {
	HistoryLimit    int `yaml:"history_limit,omitempty"`
	MaxAlternatives int `yaml:"max_alternatives,omitempty"`
}

// TaggingConfig tunes auto-tagging.
type TaggingConfig struct {
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
}

// NotificationsConfig holds a user's notification preferences.
type NotificationsConfig struct {
	QuietHours      QuietHoursConfig `yaml:"quiet_hours"`
	BatchNonUrgent  bool             `yaml:"batch_non_urgent"`
	SuppressedTypes []string         `yaml:"suppressed_types,omitempty"`
	DigestSize      int              `yaml:"digest_size,omitempty"`
}

// QuietHoursConfig uses "HH:MM" clock strings.
type QuietHoursConfig struct {
	Enabled bool   `yaml:"enabled"`
	Start   string `yaml:"start,omitempty"`
	End     string `yaml:"end,omitempty"`
}

// Preferences converts the section into notify.Preferences.
func (n NotificationsConfig) Preferences() (notify.Preferences, error) {
	prefs := notify.Preferences{
		BatchNonUrgent:  n.BatchNonUrgent,
		SuppressedTypes: n.SuppressedTypes,
	}
	if !n.QuietHours.Enabled {
		return prefs, nil
	}

	start, err := notify.ParseClock(n.QuietHours.Start)
	if err != nil {
		return prefs, fmt.Errorf("invalid quiet_hours.start: %w", err)
	}
	end, err := notify.ParseClock(n.QuietHours.End)
	if err != nil {
		return prefs, fmt.Errorf("invalid quiet_hours.end: %w", err)
	}
	prefs.QuietHours = notify.QuietHours{Enabled: true, Start: start, End: end}
	return prefs, nil
}

// BulkConfig tunes bulk operations.
type BulkConfig struct {
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Load reads a config file from the given path and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parseRaw(data)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns a config with only defaults and environment fallbacks applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// parseRaw expands environment variables and unmarshals without defaults.
func parseRaw(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// LoadWithInheritance loads a config and resolves the 'extends' chain.
// The fetcher function is used to retrieve remote configs.
func LoadWithInheritance(path string, fetcher func(ref string) ([]byte, error)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := parseRaw(data)
	if err != nil {
		return nil, err
	}

	if cfg.Extends == "" {
		cfg.applyDefaults()
		return cfg, nil
	}

	// Fetch and parse the parent config
	parentData, err := fetcher(cfg.Extends)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parent config '%s': %w", cfg.Extends, err)
	}

	parentCfg, err := parseRaw(parentData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parent config: %w", err)
	}

	// Merge: child overrides parent
	merged := mergeConfigs(parentCfg, cfg)
	merged.applyDefaults()

	return merged, nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".github/simili-triage.yaml",
		".github/simili-triage.yml",
		".simili-triage.yaml",
		".simili-triage.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultTimeoutSeconds
	}
	// An explicit temperature of 0 is kept; only an absent key gets the default.
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if t := *c.LLM.Temperature; t < 0 || t > 1 {
		t = min(max(t, 0), 1)
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.Model == "" {
		c.LLM.Model = os.Getenv("LLM_MODEL")
	}

	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	if c.Assignment.HistoryLimit <= 0 || c.Assignment.HistoryLimit > DefaultHistoryLimit {
		c.Assignment.HistoryLimit = DefaultHistoryLimit
	}
	if c.Assignment.MaxAlternatives <= 0 {
		c.Assignment.MaxAlternatives = DefaultMaxAlternatives
	}

	if c.Tagging.MinConfidence <= 0 {
		c.Tagging.MinConfidence = DefaultMinConfidence
	}

	if c.Notifications.DigestSize <= 0 {
		c.Notifications.DigestSize = DefaultDigestSize
	}

	if c.Bulk.Concurrency <= 0 {
		c.Bulk.Concurrency = DefaultConcurrency
	}
	if c.Bulk.Concurrency > MaxConcurrency {
		c.Bulk.Concurrency = MaxConcurrency
	}

	if c.Workflow == "" && len(c.Steps) == 0 {
		c.Workflow = DefaultWorkflow
	}
}

// mergeConfigs merges a child config onto a parent config.
// Non-zero values in child override parent.
func mergeConfigs(parent, child *Config) *Config {
	result := *parent

	if child.Workflow != "" {
		result.Workflow = child.Workflow
	}
	if len(child.Steps) > 0 {
		result.Steps = child.Steps
	}
	if len(child.SkipLabels) > 0 {
		result.SkipLabels = child.SkipLabels
	}

	// LLM: override field by field
	result.LLM.Provider = override(result.LLM.Provider, child.LLM.Provider)
	result.LLM.APIKey = override(result.LLM.APIKey, child.LLM.APIKey)
	result.LLM.Model = override(result.LLM.Model, child.LLM.Model)
	result.LLM.BaseURL = override(result.LLM.BaseURL, child.LLM.BaseURL)
	if child.LLM.TimeoutSeconds != 0 {
		result.LLM.TimeoutSeconds = child.LLM.TimeoutSeconds
	}
	if child.LLM.Temperature != nil {
		result.LLM.Temperature = child.LLM.Temperature
	}
	if child.LLM.MaxTokens != 0 {
		result.LLM.MaxTokens = child.LLM.MaxTokens
	}

	result.GitHub.Token = override(result.GitHub.Token, child.GitHub.Token)
	result.GitHub.Org = override(result.GitHub.Org, child.GitHub.Org)
	result.GitHub.Repo = override(result.GitHub.Repo, child.GitHub.Repo)
	result.GitHub.BaseURL = override(result.GitHub.BaseURL, child.GitHub.BaseURL)

	if child.Assignment.HistoryLimit != 0 {
		result.Assignment.HistoryLimit = child.Assignment.HistoryLimit
	}
	if child.Assignment.MaxAlternatives != 0 {
		result.Assignment.MaxAlternatives = child.Assignment.MaxAlternatives
	}
	if child.Tagging.MinConfidence != 0 {
		result.Tagging.MinConfidence = child.Tagging.MinConfidence
	}

	// Notifications: quiet hours move as a unit; booleans always take the child value
	if child.Notifications.QuietHours != (QuietHoursConfig{}) {
		result.Notifications.QuietHours = child.Notifications.QuietHours
	}
	result.Notifications.BatchNonUrgent = child.Notifications.BatchNonUrgent
	if len(child.Notifications.SuppressedTypes) > 0 {
		result.Notifications.SuppressedTypes = child.Notifications.SuppressedTypes
	}
	if child.Notifications.DigestSize != 0 {
		result.Notifications.DigestSize = child.Notifications.DigestSize
	}

	if child.Bulk.Concurrency != 0 {
		result.Bulk.Concurrency = child.Bulk.Concurrency
	}

	result.Extends = ""
	return &result
}

func override(parent, child string) string {
	if child != "" {
		return child
	}
	return parent
}

// ParseExtendsRef parses "org/repo@branch" into components.
func ParseExtendsRef(ref string) (org, repo, branch, path string, err error) {
	// Format: org/repo@branch or org/repo@branch:path
	parts := strings.SplitN(ref, "@", 2)
	if len(parts) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo@branch)", ref)
	}

	orgRepo := strings.SplitN(parts[0], "/", 2)
	if len(orgRepo) != 2 || orgRepo[0] == "" || orgRepo[1] == "" {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo)", ref)
	}

	org = orgRepo[0]
	repo = orgRepo[1]

	branchPath := strings.SplitN(parts[1], ":", 2)
	branch = branchPath[0]
	if len(branchPath) == 2 {
		path = branchPath[1]
	} else {
		path = ".github/simili-triage.yaml"
	}

	return org, repo, branch, path, nil
}
