package collector

import (
	"math"
	"testing"
	"time"
)

// approx guards against float64 rounding in price arithmetic.
func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestRateFor(t *testing.T) {
	tests := []struct {
		model         string
		input, output float64
	}{
		{"claude-opus-4", 15.00, 75.00},
		{"gpt-4o-mini", 0.15, 0.60},
		{"my-custom-opus-model", 15.00, 75.00}, // substring tier
		{"SONNET-experimental", 3.00, 15.00},   // tiers are case-insensitive
		{"totally-unknown", 3.00, 15.00},       // default rate
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			rate := rateFor(tt.model)
			if rate.InputPerMTok != tt.input || rate.OutputPerMTok != tt.output {
				t.Errorf("rateFor(%q) = %+v, want in=%v out=%v", tt.model, rate, tt.input, tt.output)
			}
		})
	}
}

func TestEstimateCosts_Empty(t *testing.T) {
	costs, tokens, usage := estimateCosts(nil, time.Now())
	if costs.Today != 0 || costs.Month != 0 {
		t.Errorf("expected zero costs, got %+v", costs)
	}
	if tokens != nil {
		t.Errorf("expected nil tokens, got %+v", tokens)
	}
	if usage != nil {
		t.Errorf("expected nil usage, got %v", usage)
	}
}

func TestEstimateCosts_TodayOnly(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	records := []sessionRecord{
		{ID: "a", Model: "claude-sonnet-4", LastActive: now.Add(-time.Hour), InputTokens: 1_000_000, OutputTokens: 1_000_000},
		{ID: "b", Model: "claude-sonnet-4", LastActive: now.Add(-26 * time.Hour), InputTokens: 9_000_000},
	}

	costs, tokens, usage := estimateCosts(records, now)

	// Yesterday's session is excluded entirely.
	if tokens.Input != 1_000_000 || tokens.Output != 1_000_000 {
		t.Errorf("unexpected tokens: %+v", tokens)
	}
	// 1M input at $3 plus 1M output at $15.
	if !approx(costs.Today, 18.00) {
		t.Errorf("expected today 18.00, got %v", costs.Today)
	}
	if !approx(costs.Month, 18.00*10) {
		t.Errorf("expected month = today * day-of-month, got %v", costs.Month)
	}
	if usage["claude-sonnet-4"] != 2_000_000 {
		t.Errorf("unexpected model usage: %v", usage)
	}
}

func TestEstimateCosts_MajorityModelWins(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []sessionRecord{
		{ID: "a", Model: "claude-opus-4", LastActive: now, InputTokens: 1_000_000},
		{ID: "b", Model: "gpt-4o-mini", LastActive: now, InputTokens: 1_000_000},
		{ID: "c", Model: "gpt-4o-mini", LastActive: now, InputTokens: 1_000_000},
	}

	costs, _, _ := estimateCosts(records, now)

	// Priced entirely at the majority model's rate: 3M input at $0.15/MTok.
	if !approx(costs.Today, 0.45) {
		t.Errorf("expected 0.45, got %v", costs.Today)
	}
}

func TestEstimateCosts_VoteTieBreaksLexicographically(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []sessionRecord{
		{ID: "a", Model: "gpt-4o", LastActive: now, InputTokens: 1_000_000},
		{ID: "b", Model: "claude-opus-4", LastActive: now, InputTokens: 1_000_000},
	}

	costs, _, _ := estimateCosts(records, now)

	// claude-opus-4 sorts before gpt-4o: 2M input at $15/MTok.
	if !approx(costs.Today, 30.00) {
		t.Errorf("expected opus pricing on tie, got %v", costs.Today)
	}
}

func TestEstimateCosts_UnnamedModel(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	records := []sessionRecord{
		{ID: "a", LastActive: now, InputTokens: 2_000_000},
	}

	costs, tokens, usage := estimateCosts(records, now)

	// No model name: default rate, no usage map.
	if !approx(costs.Today, 6.00) {
		t.Errorf("expected default-rate pricing, got %v", costs.Today)
	}
	if tokens == nil || tokens.Input != 2_000_000 {
		t.Errorf("unexpected tokens: %+v", tokens)
	}
	if usage != nil {
		t.Errorf("expected nil usage without model names, got %v", usage)
	}
}
