// Package alert evaluates threshold rules after each reading insert and
// dispatches webhook notifications. Evaluation is stateless: every rule is
// recomputed from the store on every insert, so a sustained breach
// re-notifies on every report cycle.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
)

// Evaluator runs the post-insert alert rules for a workspace.
type Evaluator struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(s store.Store, n Notifier) *Evaluator {
	return &Evaluator{store: s, notifier: n, now: time.Now}
}

// Evaluate checks the cost and downtime rules for the workspace after the
// given reading was inserted. Dispatch failures are logged, never returned:
// a broken webhook must not fail the ingestion call.
func (e *Evaluator) Evaluate(ctx context.Context, ws *models.Workspace, r *models.Reading) {
	if msg, fired := e.costAlert(ws, r); fired {
		e.dispatch(ctx, ws, "cost", msg)
	}

	fired, msg, err := e.downtimeAlert(ctx, ws)
	if err != nil {
		slog.Error("downtime alert evaluation failed", "workspace_id", ws.ID, "error", err)
	} else if fired {
		e.dispatch(ctx, ws, "downtime", msg)
	}
}

// costAlert fires iff the new reading's today cost strictly exceeds the
// configured threshold. No cooldown.
func (e *Evaluator) costAlert(ws *models.Workspace, r *models.Reading) (string, bool) {
	if ws.AlertCostThreshold == nil {
		return "", false
	}
	threshold := *ws.AlertCostThreshold
	if r.CostToday <= threshold {
		return "", false
	}
	msg := fmt.Sprintf("Cost alert for %s: today's estimated spend $%.2f exceeds the configured threshold of %.2f",
		ws.Name, r.CostToday, threshold)
	return msg, true
}

// downtimeAlert fires when the most recent reading is offline and no
// reading inside the trailing window was online. The window check is
// recomputed from scratch on each insert; an online reading anywhere in the
// window suppresses the alert.
func (e *Evaluator) downtimeAlert(ctx context.Context, ws *models.Workspace) (bool, string, error) {
	if ws.AlertDowntimeMinutes == nil || *ws.AlertDowntimeMinutes <= 0 {
		return false, "", nil
	}

	latest, err := e.store.LatestReading(ctx, ws.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("latest reading: %w", err)
	}
	if latest.Online {
		return false, "", nil
	}

	window := time.Duration(*ws.AlertDowntimeMinutes) * time.Minute
	since := e.now().Add(-window)
	online, _, err := e.store.UptimeCounts(ctx, ws.ID, since)
	if err != nil {
		return false, "", fmt.Errorf("uptime counts: %w", err)
	}
	if online > 0 {
		return false, "", nil
	}

	msg := fmt.Sprintf("Downtime alert for %s: gateway has been offline for over %d minutes",
		ws.Name, *ws.AlertDowntimeMinutes)
	return true, msg, nil
}

func (e *Evaluator) dispatch(ctx context.Context, ws *models.Workspace, kind, msg string) {
	if ws.AlertWebhookURL == nil || *ws.AlertWebhookURL == "" {
		// No webhook configured: fired condition is silently skipped.
		return
	}
	if err := e.notifier.Notify(ctx, *ws.AlertWebhookURL, msg); err != nil {
		slog.Error("alert dispatch failed",
			"workspace_id", ws.ID,
			"alert", kind,
			"error", err,
		)
		return
	}
	slog.Info("alert dispatched", "workspace_id", ws.ID, "alert", kind)
}
