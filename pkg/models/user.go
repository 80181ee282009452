package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity backed by the external OAuth layer.
// IDs are issued by that layer and arrive in session tokens; this service
// only persists the row so workspaces can reference an owner.
type User struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Email     string    `db:"email"      json:"email"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
