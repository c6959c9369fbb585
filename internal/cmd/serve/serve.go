package serve

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/cuemap/cuemap/internal/config"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var (
		snapshotIntervalSecs = int(cfg.SnapshotInterval.Seconds())
		agentThrottleMillis  = int(cfg.AgentThrottle.Milliseconds())
		apiKeysCSV           string
		apiKey               string
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start the cuemap HTTP server",
		CustomHelpTemplate: cli.CommandHelpTemplate + `NOTES:
   API key authentication is configured via environment variables:
   CUEMAP_API_KEYS=key1,key2,...
   CUEMAP_API_KEY=key
   An empty set disables authentication.
`,
		Flags: flags(&cfg, &snapshotIntervalSecs, &agentThrottleMillis, &apiKeysCSV, &apiKey),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.SnapshotInterval = time.Duration(snapshotIntervalSecs) * time.Second
			cfg.AgentThrottle = time.Duration(agentThrottleMillis) * time.Millisecond
			cfg.APIKeys = config.ParseAPIKeys(apiKeysCSV, apiKey)
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, snapshotIntervalSecs, agentThrottleMillis *int, apiKeysCSV, apiKey *string) []cli.Flag {
	return []cli.Flag{
		// ── Server ────────────────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Server:",
			Sources:     cli.EnvVars("CUEMAP_PORT"),
			Destination: &cfg.Listener.Port,
			Value:       cfg.Listener.Port,
			Usage:       "HTTP listen port",
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Category:    "Server:",
			Sources:     cli.EnvVars("CUEMAP_DATA_DIR"),
			Destination: &cfg.DataDir,
			Value:       cfg.DataDir,
			Usage:       "Directory for snapshot files",
		},
		&cli.IntFlag{
			Name:        "snapshot-interval",
			Category:    "Server:",
			Sources:     cli.EnvVars("CUEMAP_SNAPSHOT_INTERVAL"),
			Destination: snapshotIntervalSecs,
			Value:       *snapshotIntervalSecs,
			Usage:       "Seconds between periodic snapshot saves; 0 disables periodic saves",
		},
		&cli.BoolFlag{
			Name:        "multi-tenant",
			Category:    "Server:",
			Sources:     cli.EnvVars("CUEMAP_MULTI_TENANT"),
			Destination: &cfg.MultiTenant,
			Usage:       "Route requests by X-Project-ID instead of a single implicit project",
		},
		&cli.StringFlag{
			Name:        "load-static",
			Category:    "Server:",
			Sources:     cli.EnvVars("CUEMAP_LOAD_STATIC"),
			Destination: &cfg.LoadStatic,
			Usage:       "Load snapshots from this directory at startup and serve read-only",
		},
		&cli.IntFlag{
			Name:        "drain-timeout",
			Category:    "Server:",
			Sources:     cli.EnvVars("CUEMAP_DRAIN_TIMEOUT"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Seconds to wait for in-flight requests during graceful shutdown",
		},

		// ── Ingestion agent ───────────────────────────────────────
		&cli.StringFlag{
			Name:        "agent-dir",
			Category:    "Agent:",
			Sources:     cli.EnvVars("CUEMAP_AGENT_DIR"),
			Destination: &cfg.AgentDir,
			Usage:       "Directory to watch for files to ingest as memories",
		},
		&cli.IntFlag{
			Name:        "agent-throttle",
			Category:    "Agent:",
			Sources:     cli.EnvVars("CUEMAP_AGENT_THROTTLE"),
			Destination: agentThrottleMillis,
			Value:       *agentThrottleMillis,
			Usage:       "Milliseconds to debounce repeated write events per file",
		},

		// ── Authentication ────────────────────────────────────────
		&cli.StringFlag{
			Name:        "api-keys",
			Category:    "Security:",
			Sources:     cli.EnvVars("CUEMAP_API_KEYS"),
			Destination: apiKeysCSV,
			Usage:       "Comma-separated list of accepted X-API-Key values",
		},
		&cli.StringFlag{
			Name:        "api-key",
			Category:    "Security:",
			Sources:     cli.EnvVars("CUEMAP_API_KEY"),
			Destination: apiKey,
			Usage:       "A single accepted X-API-Key value, added to --api-keys",
		},
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Security:",
			Sources:     cli.EnvVars("CUEMAP_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       cfg.MetricsLabels,
			Usage:       "Comma-separated key=value constant labels added to all Prometheus metrics",
		},

		// ── LLM ───────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "llm-provider",
			Category:    "LLM:",
			Sources:     cli.EnvVars("LLM_PROVIDER"),
			Destination: &cfg.LLMProvider,
			Value:       cfg.LLMProvider,
			Usage:       "LLM provider: ollama or openai",
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Category:    "LLM:",
			Sources:     cli.EnvVars("LLM_MODEL"),
			Destination: &cfg.LLMModel,
			Value:       cfg.LLMModel,
			Usage:       "Model name passed to the configured LLM provider",
		},
		&cli.StringFlag{
			Name:        "llm-api-key",
			Category:    "LLM:",
			Sources:     cli.EnvVars("LLM_API_KEY"),
			Destination: &cfg.LLMAPIKey,
			Usage:       "API key for the openai-compatible provider",
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Category:    "LLM:",
			Sources:     cli.EnvVars("OLLAMA_URL"),
			Destination: &cfg.OllamaURL,
			Value:       cfg.OllamaURL,
			Usage:       "Base URL of the ollama server",
		},
	}
}
