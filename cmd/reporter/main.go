// Package main is the entrypoint for the AgentPulse reporter, a one-shot
// collector intended to run from cron on the agent host.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/agentpulse/agentpulse/internal/collector"
	"github.com/agentpulse/agentpulse/internal/config"
	"github.com/agentpulse/agentpulse/internal/reporter"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("report failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadReporter()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout)
	defer cancel()

	payload := collector.New(cfg).Collect(ctx)

	// Without an API key, print the payload instead of submitting. Useful
	// for checking what a host would report before wiring it up.
	if cfg.APIKey == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		slog.Warn("AGENTPULSE_API_KEY not set, dry run only")
		return nil
	}

	client := reporter.NewHTTPClient(cfg.APIURL, cfg.APIKey, cfg.SubmitTimeout)
	if err := client.SubmitReport(ctx, payload); err != nil {
		return fmt.Errorf("submit report: %w", err)
	}

	slog.Info("report submitted",
		"online", payload.Online,
		"sessions_active", payload.Sessions.Active,
		"cost_today", payload.Costs.Today,
	)
	return nil
}
