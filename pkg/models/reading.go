package models

import (
	"time"

	"github.com/google/uuid"
)

// Reading is one immutable snapshot of a workspace's reported state.
// Rows are append-only; nothing updates a reading after insertion.
type Reading struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	WorkspaceID uuid.UUID `db:"workspace_id" json:"workspace_id"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`

	Online        bool  `db:"online"         json:"online"`
	UptimeSeconds int64 `db:"uptime_seconds" json:"uptime_seconds"`

	SessionsActive int `db:"sessions_active" json:"sessions_active"`
	SessionsTotal  int `db:"sessions_total"  json:"sessions_total"`
	CronsEnabled   int `db:"crons_enabled"   json:"crons_enabled"`
	CronsTotal     int `db:"crons_total"     json:"crons_total"`

	CostToday float64 `db:"cost_today" json:"cost_today"`
	CostMonth float64 `db:"cost_month" json:"cost_month"`

	TokensInput  *int64           `db:"tokens_input"  json:"tokens_input,omitempty"`
	TokensOutput *int64           `db:"tokens_output" json:"tokens_output,omitempty"`
	ModelUsage   map[string]int64 `db:"model_usage"   json:"model_usage,omitempty"`

	System *SystemMetrics     `db:"system" json:"system,omitempty"`
	Checks *CheckResults      `db:"checks" json:"checks,omitempty"`
	Custom map[string]float64 `db:"custom" json:"custom,omitempty"`

	ErrorCount *int    `db:"error_count" json:"error_count,omitempty"`
	LastError  *string `db:"last_error"  json:"last_error,omitempty"`
}

// SystemMetrics carries host-level resource usage reported by the collector.
type SystemMetrics struct {
	Hostname       string  `json:"hostname"`
	Platform       string  `json:"platform"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	DiskPercent    float64 `json:"disk_percent"`
	LocalIP        string  `json:"local_ip,omitempty"`
	HostUptimeSecs uint64  `json:"host_uptime_seconds,omitempty"`
}

// CheckResults holds the outcome of optional endpoint and process probes.
type CheckResults struct {
	Endpoints []EndpointCheck `json:"endpoints,omitempty"`
	Processes []ProcessCheck  `json:"processes,omitempty"`
}

// EndpointCheck is the result of a single HTTP probe.
type EndpointCheck struct {
	URL       string `json:"url"`
	Up        bool   `json:"up"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ProcessCheck is the result of a single process-table probe.
type ProcessCheck struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Count   int    `json:"count"`
}

// ReportPayload is the wire shape submitted to POST /v1/report. It mirrors
// Reading minus the server-assigned identity fields; every optional section
// may be omitted by the collector.
type ReportPayload struct {
	Online        bool  `json:"online"`
	UptimeSeconds int64 `json:"uptime_seconds"`

	Sessions SessionCounts `json:"sessions"`
	Crons    CronCounts    `json:"crons"`
	Costs    CostEstimate  `json:"costs"`

	Tokens     *TokenCounts     `json:"tokens,omitempty"`
	ModelUsage map[string]int64 `json:"model_usage,omitempty"`

	System *SystemMetrics     `json:"system,omitempty"`
	Checks *CheckResults      `json:"checks,omitempty"`
	Custom map[string]float64 `json:"custom,omitempty"`

	Errors *ErrorSummary `json:"errors,omitempty"`
}

type SessionCounts struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

type CronCounts struct {
	Enabled int `json:"enabled"`
	Total   int `json:"total"`
}

type CostEstimate struct {
	Today float64 `json:"today"`
	Month float64 `json:"month"`
}

type TokenCounts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
}

// ErrorSummary aggregates collector-side sub-probe failures.
type ErrorSummary struct {
	Count int    `json:"count"`
	Last  string `json:"last,omitempty"`
}

// Reading converts the payload into a Reading scoped to a workspace.
// The caller assigns ID and CreatedAt.
func (p ReportPayload) Reading(workspaceID uuid.UUID) *Reading {
	r := &Reading{
		WorkspaceID:    workspaceID,
		Online:         p.Online,
		UptimeSeconds:  p.UptimeSeconds,
		SessionsActive: p.Sessions.Active,
		SessionsTotal:  p.Sessions.Total,
		CronsEnabled:   p.Crons.Enabled,
		CronsTotal:     p.Crons.Total,
		CostToday:      p.Costs.Today,
		CostMonth:      p.Costs.Month,
		ModelUsage:     p.ModelUsage,
		System:         p.System,
		Checks:         p.Checks,
		Custom:         p.Custom,
	}
	if p.Tokens != nil {
		r.TokensInput = &p.Tokens.Input
		r.TokensOutput = &p.Tokens.Output
	}
	if p.Errors != nil {
		r.ErrorCount = &p.Errors.Count
		if p.Errors.Last != "" {
			last := p.Errors.Last
			r.LastError = &last
		}
	}
	return r
}
