package config

import (
	"context"
	"strings"
	"time"
)

// ListenerConfig holds the network settings for the HTTP listener.
type ListenerConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the memory service.
type Config struct {
	// Server
	Listener    ListenerConfig
	MaxBodySize int64

	// DataDir is where snapshot files are written. In single-tenant mode
	// this holds cuemap.bin directly; in multi-tenant mode it holds a
	// snapshots/ subdirectory with one file per project.
	DataDir string

	// SnapshotInterval controls how often the running Project(s) are
	// flushed to disk. Zero disables periodic snapshotting (save-on-exit only).
	SnapshotInterval time.Duration

	// MultiTenant switches the dispatcher from a single implicit project
	// to per-X-Project-ID routing.
	MultiTenant bool

	// LoadStatic, when non-empty, loads snapshots from this directory at
	// startup and puts the server into read-only mode.
	LoadStatic string

	// AgentDir, when non-empty, is watched by the filesystem ingestion agent.
	AgentDir string

	// AgentThrottle debounces repeated write events for the same path.
	AgentThrottle time.Duration

	// Security
	// APIKeys is the set of accepted X-API-Key values. Empty disables auth.
	APIKeys map[string]struct{}

	// LLM
	LLMProvider string // "ollama" or "openai"
	LLMModel    string
	LLMAPIKey   string
	OllamaURL   string

	// Graceful shutdown drain timeout (seconds).
	DrainTimeout int

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	MetricsLabels string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Listener: ListenerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
		},
		MaxBodySize:      10 * 1024 * 1024,
		DataDir:          "./data",
		SnapshotInterval: 60 * time.Second,
		AgentThrottle:    500 * time.Millisecond,
		LLMProvider:      "ollama",
		LLMModel:         "llama3",
		OllamaURL:        "http://localhost:11434",
		DrainTimeout:     30,
		MetricsLabels:    "service=cuemap",
	}
}

// ParseAPIKeys splits a comma-separated key list (from CUEMAP_API_KEYS) plus
// an optional single CUEMAP_API_KEY value into the accepted-key set.
func ParseAPIKeys(csvKeys, singleKey string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, k := range strings.Split(csvKeys, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	if singleKey = strings.TrimSpace(singleKey); singleKey != "" {
		keys[singleKey] = struct{}{}
	}
	return keys
}
