// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/ala-agent/internal/secrets"
	"github.com/pdiddy/ala-agent/pkg/types"
)

func TestConfigFrom_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := configFrom(v, nil)
	assert.Equal(t, "https://api.ala.org.au", cfg.HTTP.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, defaultModel, cfg.Extraction.Model)
	assert.Equal(t, defaultModel, cfg.Planning.Model)
	assert.Equal(t, types.PlannerLLM, cfg.Planning.Strategy)
	assert.Equal(t, types.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, "ala:names:", cfg.Cache.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, time.Hour, cfg.Cache.NegativeTTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
	assert.Empty(t, cfg.Extraction.APIKey)
}

func TestConfigFrom_SectionOverridesShareAI(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ai.model", "shared-model")
	v.Set("planning.model", "planner-model")
	v.Set("planning.timeout", 5*time.Second)

	cfg := configFrom(v, nil)
	assert.Equal(t, "shared-model", cfg.Extraction.Model)
	assert.Equal(t, "planner-model", cfg.Planning.Model)
	assert.Equal(t, 5*time.Second, cfg.Planning.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
}

func TestConfigFrom_APIKey(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	s := secrets.Secrets{secrets.AnthropicAPIKey: "from-file"}

	cfg := configFrom(v, s)
	assert.Equal(t, "from-file", cfg.Extraction.APIKey)
	assert.Equal(t, "from-file", cfg.Planning.APIKey)

	v.Set("ai.api_key", "from-env")
	cfg = configFrom(v, s)
	assert.Equal(t, "from-env", cfg.Extraction.APIKey)
}

func TestParseParams(t *testing.T) {
	p, err := parseParams("")
	assert.NoError(t, err)
	assert.Empty(t, p)

	p, err = parseParams(`{"lsid": "urn:lsid:x", "fq": ["state:Queensland"]}`)
	assert.NoError(t, err)
	assert.Equal(t, "urn:lsid:x", p["lsid"])
	assert.Equal(t, []string{"fq", "lsid"}, sortedKeys(p))

	_, err = parseParams("{")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
