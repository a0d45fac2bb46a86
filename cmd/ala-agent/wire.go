// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/pdiddy/ala-agent/internal/agent"
	"github.com/pdiddy/ala-agent/internal/cache"
	"github.com/pdiddy/ala-agent/internal/execute"
	"github.com/pdiddy/ala-agent/internal/extract"
	"github.com/pdiddy/ala-agent/internal/history"
	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/internal/llm"
	"github.com/pdiddy/ala-agent/internal/namematch"
	"github.com/pdiddy/ala-agent/internal/plan"
	"github.com/pdiddy/ala-agent/internal/resolve"
	"github.com/pdiddy/ala-agent/internal/secrets"
	"github.com/pdiddy/ala-agent/internal/tools"
	"github.com/pdiddy/ala-agent/pkg/types"
)

var errNoAPIKey = errors.New("no Anthropic API key: put it in .secrets/anthropic-api-key or set ALA_AGENT_AI_API_KEY")

// components holds the wired pipeline for one CLI invocation.
type components struct {
	cfg       types.AgentConfig
	cache     *cache.Cache
	resolver  *resolve.Resolver
	completer llm.Completer
	planner   plan.Planner
	registry  *tools.Registry
	history   *history.Store
}

// wire builds every component from the loaded config. The completer is nil
// when no API key is configured; the planner then falls back to rules.
func wire(ctx context.Context, logger *slog.Logger) (*components, error) {
	cfg := loadConfig()
	c := &components{cfg: cfg}

	client := httputil.NewClient(cfg.HTTP)
	c.cache = cache.Open(ctx, cfg.Cache, loadedSecrets.Get(secrets.RedisPassword, ""), logger)
	c.resolver = resolve.New(namematch.NewClient(cfg.HTTP.BaseURL, client), c.cache, logger)
	c.registry = tools.Default(client, cfg.HTTP.BaseURL)

	if cfg.Extraction.APIKey != "" {
		c.completer = llm.NewClaude(cfg.Extraction.AIConfig)
	}
	var planCompleter llm.Completer
	if cfg.Planning.APIKey != "" {
		planCompleter = llm.NewClaude(cfg.Planning.AIConfig)
	}
	c.planner = plan.New(cfg.Planning, planCompleter, logger)

	if cfg.History.Dir != "" {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.history = store
	}
	return c, nil
}

// extractor returns the language-model extractor, or errNoAPIKey.
func (c *components) extractor(logger *slog.Logger) (*extract.Extractor, error) {
	if c.completer == nil {
		return nil, errNoAPIKey
	}
	return extract.New(c.completer, c.cfg.Extraction, logger), nil
}

// agent assembles the full pipeline. progress may be nil.
func (c *components) agent(progress io.Writer, logger *slog.Logger) (*agent.Agent, error) {
	ex, err := c.extractor(logger)
	if err != nil {
		return nil, err
	}
	d := agent.Deps{
		Extractor:   ex,
		Resolver:    c.resolver,
		Planner:     c.planner,
		Coordinator: execute.New(c.registry, logger),
		Progress:    progress,
		Logger:      logger,
	}
	if c.history != nil {
		d.History = c.history
	}
	return agent.New(d), nil
}

// Close releases the cache and history handles.
func (c *components) Close() error {
	var errs []error
	if c.cache != nil {
		errs = append(errs, c.cache.Close())
	}
	if c.history != nil {
		errs = append(errs, c.history.Close())
	}
	return errors.Join(errs...)
}
