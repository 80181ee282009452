// Package models contains shared data models used across the AgentPulse codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is the tenant boundary. Every reading, invite, and alert
// configuration belongs to a workspace. Raw secret keys are shown once at
// creation; only the bcrypt hash is stored.
type Workspace struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	Name      string     `db:"name"       json:"name"`
	Slug      *string    `db:"slug"       json:"slug,omitempty"`
	OwnerID   *uuid.UUID `db:"owner_id"   json:"owner_id,omitempty"`
	KeyHash   string     `db:"key_hash"   json:"-"`
	KeyPrefix string     `db:"key_prefix" json:"key_prefix"`
	Public    bool       `db:"public"     json:"public"`

	AlertCostThreshold   *float64 `db:"alert_cost_threshold"   json:"alert_cost_threshold,omitempty"`
	AlertDowntimeMinutes *int     `db:"alert_downtime_minutes" json:"alert_downtime_minutes,omitempty"`
	AlertWebhookURL      *string  `db:"alert_webhook_url"      json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
