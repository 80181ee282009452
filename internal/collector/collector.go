// Package collector produces one report payload per invocation. Every
// sub-collection is independently best-effort: a failing section degrades
// to a zero value and feeds the payload's error summary instead of
// aborting the run.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentpulse/agentpulse/internal/config"
	"github.com/agentpulse/agentpulse/pkg/models"
)

// Collector gathers local facts into a single snapshot payload.
type Collector struct {
	cfg *config.ReporterConfig
	now func() time.Time
}

// New creates a Collector for the given reporter configuration.
func New(cfg *config.ReporterConfig) *Collector {
	return &Collector{cfg: cfg, now: time.Now}
}

// errTracker accumulates sub-probe failures for the payload error summary.
type errTracker struct {
	count int
	last  string
}

func (t *errTracker) record(section string, err error) {
	t.count++
	t.last = fmt.Sprintf("%s: %v", section, err)
	slog.Warn("collection section failed", "section", section, "error", err)
}

// Collect runs every sub-collection and assembles the payload. It never
// returns an error: partial failure is encoded in the errors section.
func (c *Collector) Collect(ctx context.Context) models.ReportPayload {
	var errs errTracker
	now := c.now()

	payload := models.ReportPayload{Online: true}

	sessions, records, err := collectSessions(c.cfg.SessionDir, now, c.cfg.ActiveWindow)
	if err != nil {
		errs.record("sessions", err)
	}
	payload.Sessions = sessions

	costs, tokens, modelUsage := estimateCosts(records, now)
	payload.Costs = costs
	payload.Tokens = tokens
	payload.ModelUsage = modelUsage

	crons, err := collectCrons(c.cfg.CronFile)
	if err != nil {
		errs.record("crons", err)
	}
	payload.Crons = crons

	system, err := collectSystem(ctx)
	if err != nil {
		errs.record("system", err)
	}
	payload.System = system
	if system != nil {
		payload.UptimeSeconds = int64(system.HostUptimeSecs)
	}

	if checks := c.collectChecks(ctx, &errs); checks != nil {
		payload.Checks = checks
	}

	if custom := c.collectCustom(ctx, &errs); len(custom) > 0 {
		payload.Custom = custom
	}

	if c.cfg.GatewayProcess != "" {
		running, err := processRunning(ctx, c.cfg.GatewayProcess)
		if err != nil {
			errs.record("gateway", err)
		} else {
			payload.Online = running
		}
	}

	if errs.count > 0 {
		payload.Errors = &models.ErrorSummary{Count: errs.count, Last: errs.last}
	}

	return payload
}
