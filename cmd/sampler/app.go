package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hpn/hpn-sampler/internal/adapter"
	"github.com/hpn/hpn-sampler/internal/config"
	"github.com/hpn/hpn-sampler/internal/sampler"
	"github.com/hpn/hpn-sampler/internal/security"
)

// Registry names for the two samplers.
const (
	conversationalName = "conversational"
	generativeName     = "generative"
)

func loadConfig(path string) (*config.Configuration, error) {
	if path != "" {
		return config.GetConfigWithPath(path)
	}
	return config.GetConfig()
}

// setupLogger creates a structured logger that never prints vendor keys.
func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if cfg.Format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(security.NewRedactedHandler(base))
}

// buildRegistry constructs both samplers from cfg.
func buildRegistry(ctx context.Context, cfg *config.Configuration, logger *slog.Logger) (*sampler.Registry, error) {
	opts := []sampler.Option{
		sampler.WithPolicy(cfg.Retry.Policy()),
		sampler.WithLogger(logger),
	}

	cohere := adapter.NewCohereAdapter(cfg.Keys.Cohere, cfg.Vendors.Cohere.AdapterOptions()...)

	gemini, err := adapter.NewGeminiAdapter(ctx, cfg.Keys.Google, cfg.Vendors.Google.AdapterOptions()...)
	if err != nil {
		return nil, fmt.Errorf("generative sampler: %w", err)
	}

	registry := sampler.NewRegistry()
	if err := registry.Register(conversationalName,
		sampler.NewConversationalSampler(cohere, cfg.Samplers.Conversational, opts...)); err != nil {
		return nil, err
	}
	if err := registry.Register(generativeName,
		sampler.NewGenerativeSampler(gemini, cfg.Samplers.Generative, opts...)); err != nil {
		return nil, err
	}

	return registry, nil
}

// stderrLogger is used before configuration is available.
func stderrLogger() *slog.Logger {
	return slog.New(security.NewRedactedHandler(slog.NewJSONHandler(os.Stderr, nil)))
}
