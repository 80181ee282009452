package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicateKey  = errors.New("duplicate key violation")
	ErrInviteUsed    = errors.New("invite already used")
	ErrInviteExpired = errors.New("invite expired")
)

// Store is the data access interface. All database operations go through here.
// Two implementations exist: PostgresStore (durable) and MemoryStore
// (ephemeral fallback when no DATABASE_URL is configured).
type Store interface {
	Ping(ctx context.Context) error

	CreateWorkspace(ctx context.Context, ws *models.Workspace) error
	GetWorkspaceByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	GetWorkspaceByHostname(ctx context.Context, hostname string) (*models.Workspace, error)
	GetWorkspacesByKeyPrefix(ctx context.Context, prefix string) ([]*models.Workspace, error)
	UpdateWorkspaceSettings(ctx context.Context, id uuid.UUID, settings AlertSettings) error
	UpdateWorkspaceOwner(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error

	InsertReading(ctx context.Context, r *models.Reading) error
	LatestReading(ctx context.Context, workspaceID uuid.UUID) (*models.Reading, error)
	ListReadings(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*models.Reading, error)
	ListReadingsSince(ctx context.Context, workspaceID uuid.UUID, since time.Time, limit int) ([]*models.Reading, error)
	UptimeCounts(ctx context.Context, workspaceID uuid.UUID, since time.Time) (online int, total int, err error)

	CreateInvite(ctx context.Context, inv *models.Invite) error
	GetInviteByToken(ctx context.Context, token string) (*models.Invite, error)
	ConsumeInvite(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	UpsertUser(ctx context.Context, u *models.User) error
}

// AlertSettings carries the mutable per-workspace configuration applied by
// UpdateWorkspaceSettings. Nil pointer fields leave the stored value
// untouched; the Clear flags remove the stored value outright.
type AlertSettings struct {
	Name                 *string
	Slug                 *string
	Public               *bool
	CostThreshold        *float64
	DowntimeMinutes      *int
	WebhookURL           *string
	ClearWebhook         bool
	ClearCostThreshold   bool
	ClearDowntimeMinutes bool
}
