package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/agentqa/mentor/internal/cache"
	"github.com/agentqa/mentor/internal/memory"
	"github.com/agentqa/mentor/internal/oracle"
	"github.com/agentqa/mentor/internal/orchestration"
	"github.com/agentqa/mentor/internal/projectconfig"
	"github.com/agentqa/mentor/internal/session"
)

// loadConfig loads .env and .mentor.yaml from the current directory.
func loadConfig() (*projectconfig.ProjectConfig, error) {
	if err := projectconfig.LoadEnv("."); err != nil {
		return nil, err
	}
	return projectconfig.Load(".")
}

// buildOracle constructs the production oracle client from config. The API
// key comes from the environment (ANTHROPIC_API_KEY, possibly via .env).
func buildOracle(cfg *projectconfig.ProjectConfig) (oracle.Client, error) {
	client, err := oracle.NewAnthropicClient(oracle.AnthropicConfig{
		Model:     cfg.Oracle.Model,
		MaxTokens: cfg.Oracle.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring oracle: %w", err)
	}
	return client, nil
}

// buildStore opens the memory store, attaching a qdrant similarity index when
// one is configured.
func buildStore(cfg *projectconfig.ProjectConfig, logger *slog.Logger) (*memory.Store, error) {
	opts := []memory.Option{memory.WithLogger(logger)}

	if cfg.Qdrant.Enabled != nil && *cfg.Qdrant.Enabled {
		index, err := memory.NewQdrantIndex(memory.QdrantConfig{
			URL:        cfg.Qdrant.URL,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Collection: cfg.Qdrant.Collection,
		}, memory.NewFeatureHashEmbedder(0), logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		if err := index.EnsureCollection(context.Background()); err != nil {
			return nil, err
		}
		opts = append(opts, memory.WithSimilarityIndex(index))
	}

	return memory.Open(cfg.Paths.Memory, opts...), nil
}

// buildOrchestrator assembles the full pipeline. The returned cleanup closes
// the session log (if enabled) and must be called when the run finishes.
func buildOrchestrator(cfg *projectconfig.ProjectConfig, logger *slog.Logger, sessionID string, sessionLog bool) (*orchestration.Orchestrator, func(), error) {
	client, err := buildOracle(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := buildStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []orchestration.Option{
		orchestration.WithLogger(logger),
		orchestration.WithVerdictCache(cache.New(cfg.Paths.Cache)),
	}
	if sessionID != "" {
		opts = append(opts, orchestration.WithSessionID(sessionID))
	}

	cleanup := func() {}
	if sessionLog {
		eventLog, err := session.NewJSONLogger(session.DefaultLogPath(cfg.Paths.Sessions))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session log enabled", "path", eventLog.Path())
		opts = append(opts, orchestration.WithSessionLogger(eventLog))
		cleanup = func() {
			if err := eventLog.Close(); err != nil {
				logger.Warn("closing session log", "error", err)
			}
		}
	}

	return orchestration.New(client, store, opts...), cleanup, nil
}
