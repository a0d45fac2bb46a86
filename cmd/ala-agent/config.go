// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/ala-agent/internal/httputil"
	"github.com/pdiddy/ala-agent/internal/secrets"
	"github.com/pdiddy/ala-agent/pkg/types"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultUserAgent = "ala-agent/0.1"
)

// setDefaults registers the default for every config key. Extraction and
// planning share the ai.* settings unless overridden under their own key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.base_url", httputil.DefaultBaseURL)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", defaultUserAgent)
	v.SetDefault("http.max_retries", 3)

	v.SetDefault("ai.model", defaultModel)
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.max_tokens", 2048)

	v.SetDefault("planning.strategy", string(types.PlannerLLM))

	v.SetDefault("cache.backend", string(types.CacheMemory))
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.dir", ".ala-agent/names")
	v.SetDefault("cache.prefix", "ala:names:")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.negative_ttl", time.Hour)

	v.SetDefault("history.dir", ".ala-agent")
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("telemetry.log_level", "info")
	v.SetDefault("telemetry.log_json", false)
	v.SetDefault("telemetry.trace", false)
}

// loadConfig reads the merged flag, env, file, and default values.
func loadConfig() types.AgentConfig {
	return configFrom(viper.GetViper(), loadedSecrets)
}

func configFrom(v *viper.Viper, s secrets.Secrets) types.AgentConfig {
	ai := func(section string) types.AIConfig {
		get := func(key string) string {
			if v.IsSet(section + "." + key) {
				return section + "." + key
			}
			return "ai." + key
		}
		return types.AIConfig{
			Model:      v.GetString(get("model")),
			APIKey:     s.Get(secrets.AnthropicAPIKey, v.GetString("ai.api_key")),
			BaseURL:    v.GetString(get("base_url")),
			MaxRetries: v.GetInt(get("max_retries")),
			Timeout:    v.GetDuration(get("timeout")),
			MaxTokens:  v.GetInt(get("max_tokens")),
		}
	}

	return types.AgentConfig{
		HTTP: types.HTTPConfig{
			BaseURL:    v.GetString("http.base_url"),
			Timeout:    v.GetDuration("http.timeout"),
			UserAgent:  v.GetString("http.user_agent"),
			MaxRetries: v.GetInt("http.max_retries"),
		},
		Extraction: types.ExtractionConfig{AIConfig: ai("extraction")},
		Planning: types.PlanningConfig{
			AIConfig: ai("planning"),
			Strategy: types.PlannerStrategy(v.GetString("planning.strategy")),
		},
		Cache: types.CacheConfig{
			Backend:     types.CacheBackend(v.GetString("cache.backend")),
			RedisURL:    v.GetString("cache.redis_url"),
			Dir:         v.GetString("cache.dir"),
			Prefix:      v.GetString("cache.prefix"),
			TTL:         v.GetDuration("cache.ttl"),
			NegativeTTL: v.GetDuration("cache.negative_ttl"),
		},
		History:   types.HistoryConfig{Dir: v.GetString("history.dir")},
		Server:    types.ServerConfig{Addr: v.GetString("server.addr")},
		Telemetry: types.TelemetryConfig{
			LogLevel: v.GetString("telemetry.log_level"),
			LogJSON:  v.GetBool("telemetry.log_json"),
			Trace:    v.GetBool("telemetry.trace"),
		},
	}
}
