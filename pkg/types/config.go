// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that call ALA.
type HTTPConfig struct {
	// BaseURL is the ALA API gateway (default "https://api.ala.org.au").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout bounds every external HTTP request (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ala-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the AI API endpoint. Empty uses the SDK default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed or invalid
	// completions (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds a single completion call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxTokens caps the completion length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// CacheBackend selects the name-resolution cache store.
type CacheBackend string

const (
	CacheRedis  CacheBackend = "redis"
	CacheBadger CacheBackend = "badger"
	CacheMemory CacheBackend = "memory"
)

// CacheConfig holds settings for the name-resolution cache.
type CacheConfig struct {
	// Backend selects the store: redis, badger, or memory.
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// RedisURL is the redis connection URL (e.g. "redis://localhost:6379/0").
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`

	// Dir is the badger data directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Prefix namespaces cache keys (default "ala:names:").
	Prefix string `json:"prefix" yaml:"prefix"`

	// TTL is the lifetime of positive entries (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// NegativeTTL is the lifetime of no-match entries (default 1h).
	NegativeTTL time.Duration `json:"negative_ttl" yaml:"negative_ttl"`
}

// PlannerStrategy selects the ExecutionPlanner implementation.
type PlannerStrategy string

const (
	PlannerLLM   PlannerStrategy = "llm"
	PlannerRules PlannerStrategy = "rules"
)

// ExtractionConfig holds settings for the parameter extractor.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`
}

// PlanningConfig holds settings for the execution planner.
type PlanningConfig struct {
	AIConfig `yaml:",inline"`

	// Strategy selects llm or rules (default llm).
	Strategy PlannerStrategy `json:"strategy" yaml:"strategy"`
}

// HistoryConfig holds settings for the request history store.
type HistoryConfig struct {
	// Dir is the directory holding history.db. Empty disables history.
	Dir string `json:"dir" yaml:"dir"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// TelemetryConfig holds logging and tracing settings.
type TelemetryConfig struct {
	// LogLevel is one of debug, info, warn, error (default info).
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogJSON selects JSON log output instead of text.
	LogJSON bool `json:"log_json" yaml:"log_json"`

	// Trace enables the stdout span exporter.
	Trace bool `json:"trace" yaml:"trace"`
}

// AgentConfig groups all component configurations.
type AgentConfig struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Planning   PlanningConfig   `json:"planning" yaml:"planning"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Telemetry  TelemetryConfig  `json:"telemetry" yaml:"telemetry"`
}
