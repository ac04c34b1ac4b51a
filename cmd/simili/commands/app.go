package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/similigh/simili-triage/internal/assign"
	"github.com/similigh/simili-triage/internal/core/config"
	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/integrations/ai"
	"github.com/similigh/simili-triage/internal/integrations/github"
	"github.com/similigh/simili-triage/internal/reasoning"
	"github.com/similigh/simili-triage/internal/store/memory"
	"github.com/similigh/simili-triage/internal/tagging"
	"github.com/similigh/simili-triage/internal/triage"
)

// app bundles the configured stores and services for one command run.
type app struct {
	cfg       *config.Config
	issues    triage.IssueStore
	members   triage.TeamMemberStore
	commenter pipeline.Commenter
	snapshot  *memory.Store // set when --data is used
	backend   ai.Backend
	reasoning *reasoning.Client
	assigner  *assign.Service
	tagger    *tagging.Service
}

// loadConfig loads the config file with remote inheritance, falling back to
// defaults when no file is found.
func loadConfig() *config.Config {
	path := config.FindConfigPath(cfgFile)
	if path == "" {
		if cfgFile != "" {
			log.Printf("Warning: config file %s not found. Using defaults and environment variables.", cfgFile)
		} else if verbose {
			log.Println("No configuration file found. Using defaults and environment variables.")
		}
		return config.Default()
	}

	fetcher := func(ref string) ([]byte, error) {
		org, repo, branch, file, err := config.ParseExtendsRef(ref)
		if err != nil {
			return nil, err
		}
		token := config.Default().GitHub.Token
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN required to fetch remote config %s", ref)
		}
		return github.NewClient(context.Background(), token).GetFileContent(context.Background(), org, repo, file, branch)
	}

	cfg, err := config.LoadWithInheritance(path, fetcher)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Proceeding with defaults/env vars.", path, err)
		return config.Default()
	}
	if verbose {
		log.Printf("Loaded config from %s", path)
	}
	return cfg
}

// newApp wires stores, the optional reasoning backend and the services.
// overrides run on the loaded config before anything is built.
func newApp(ctx context.Context, overrides ...func(*config.Config)) (*app, error) {
	cfg := loadConfig()
	for _, o := range overrides {
		o(cfg)
	}
	a := &app{cfg: cfg}

	switch {
	case dataFile != "":
		store, err := memory.LoadFile(dataFile)
		if err != nil {
			return nil, err
		}
		a.issues, a.members, a.snapshot = store, store, store
	case cfg.GitHub.Token != "":
		client := github.NewClient(ctx, cfg.GitHub.Token)
		if cfg.GitHub.BaseURL != "" {
			var err error
			if client, err = github.NewEnterpriseClient(ctx, cfg.GitHub.Token, cfg.GitHub.BaseURL); err != nil {
				return nil, err
			}
		}
		store := github.NewStore(client, cfg.GitHub.Org)
		a.issues, a.members, a.commenter = store, store, store
	default:
		return nil, fmt.Errorf("no issue source: pass --data <snapshot.json> or set github.token / GITHUB_TOKEN")
	}

	backend, err := ai.New(ai.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		log.Printf("[reasoning] No backend available, using heuristics only (non-blocking): %v", err)
	} else {
		a.backend = backend
		a.reasoning = reasoning.NewClient(backend, reasoning.Options{
			Timeout:     cfg.LLM.Timeout(),
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		if verbose {
			log.Printf("[reasoning] Using %s model %s", backend.Provider(), backend.Model())
		}
	}

	a.assigner = assign.NewService(a.issues, a.members, a.reasoning, assign.Options{
		HistoryLimit:    cfg.Assignment.HistoryLimit,
		MaxAlternatives: cfg.Assignment.MaxAlternatives,
		Concurrency:     cfg.Bulk.Concurrency,
	})
	a.tagger = tagging.NewService(a.issues, a.reasoning, tagging.Options{
		MinConfidence: cfg.Tagging.MinConfidence,
		Concurrency:   cfg.Bulk.Concurrency,
	})
	return a, nil
}

// dependencies exposes the app as pipeline dependencies.
func (a *app) dependencies(dryRun bool) *pipeline.Dependencies {
	return &pipeline.Dependencies{
		Issues:    a.issues,
		Assigner:  a.assigner,
		Tagger:    a.tagger,
		Commenter: a.commenter,
		DryRun:    dryRun,
	}
}

// persist writes the snapshot back after a mutating command in --data mode.
func (a *app) persist() error {
	if a.snapshot == nil {
		return nil
	}
	if err := a.snapshot.WriteFile(dataFile); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	if verbose {
		log.Printf("Saved snapshot to %s", dataFile)
	}
	return nil
}

// Close releases the reasoning backend.
func (a *app) Close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			log.Printf("Warning: failed to close reasoning backend: %v", err)
		}
	}
}
