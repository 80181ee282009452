package models

import (
	"time"

	"github.com/google/uuid"
)

// Invite is a single-use, time-limited token transferring workspace
// ownership to a human account. UsedAt marks consumption.
type Invite struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	Token       string     `db:"token"        json:"token"`
	WorkspaceID uuid.UUID  `db:"workspace_id" json:"workspace_id"`
	ExpiresAt   time.Time  `db:"expires_at"   json:"expires_at"`
	UsedAt      *time.Time `db:"used_at"      json:"used_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
}

// Expired reports whether the invite is past its expiry at the given time.
func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Used reports whether the invite has already been consumed.
func (i *Invite) Used() bool {
	return i.UsedAt != nil
}
