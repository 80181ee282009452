package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Workspaces ---

const workspaceColumns = `id, name, slug, owner_id, key_hash, key_prefix, public,
	 alert_cost_threshold, alert_downtime_minutes, alert_webhook_url, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var ws models.Workspace
	err := row.Scan(&ws.ID, &ws.Name, &ws.Slug, &ws.OwnerID, &ws.KeyHash, &ws.KeyPrefix, &ws.Public,
		&ws.AlertCostThreshold, &ws.AlertDowntimeMinutes, &ws.AlertWebhookURL, &ws.CreatedAt, &ws.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *PostgresStore) CreateWorkspace(ctx context.Context, ws *models.Workspace) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workspaces (id, name, slug, owner_id, key_hash, key_prefix, public,
		   alert_cost_threshold, alert_downtime_minutes, alert_webhook_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ws.ID, ws.Name, ws.Slug, ws.OwnerID, ws.KeyHash, ws.KeyPrefix, ws.Public,
		ws.AlertCostThreshold, ws.AlertDowntimeMinutes, ws.AlertWebhookURL, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetWorkspaceByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, err
}

func (s *PostgresStore) GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE slug = $1`, slug))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get workspace by slug: %w", err)
	}
	return ws, err
}

// GetWorkspaceByHostname resolves a workspace through the hostname its most
// recent reading reported. Used as the status-page fallback when no slug
// matches.
func (s *PostgresStore) GetWorkspaceByHostname(ctx context.Context, hostname string) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = (
		   SELECT workspace_id FROM readings
		   WHERE system->>'hostname' = $1
		   ORDER BY created_at DESC LIMIT 1
		 )`, hostname))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get workspace by hostname: %w", err)
	}
	return ws, err
}

func (s *PostgresStore) GetWorkspacesByKeyPrefix(ctx context.Context, prefix string) ([]*models.Workspace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE key_prefix = $1`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get workspaces by key prefix: %w", err)
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		var ws models.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Slug, &ws.OwnerID, &ws.KeyHash, &ws.KeyPrefix, &ws.Public,
			&ws.AlertCostThreshold, &ws.AlertDowntimeMinutes, &ws.AlertWebhookURL, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, &ws)
	}
	return workspaces, rows.Err()
}

func (s *PostgresStore) UpdateWorkspaceSettings(ctx context.Context, id uuid.UUID, settings AlertSettings) error {
	query := `UPDATE workspaces SET updated_at = NOW()`
	var args []any
	argIdx := 1

	set := func(column string, value any) {
		query += fmt.Sprintf(", %s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if settings.Name != nil {
		set("name", *settings.Name)
	}
	if settings.Slug != nil {
		set("slug", *settings.Slug)
	}
	if settings.Public != nil {
		set("public", *settings.Public)
	}
	if settings.CostThreshold != nil {
		set("alert_cost_threshold", *settings.CostThreshold)
	} else if settings.ClearCostThreshold {
		query += ", alert_cost_threshold = NULL"
	}
	if settings.DowntimeMinutes != nil {
		set("alert_downtime_minutes", *settings.DowntimeMinutes)
	} else if settings.ClearDowntimeMinutes {
		query += ", alert_downtime_minutes = NULL"
	}
	if settings.WebhookURL != nil {
		set("alert_webhook_url", *settings.WebhookURL)
	} else if settings.ClearWebhook {
		query += ", alert_webhook_url = NULL"
	}

	query += fmt.Sprintf(" WHERE id = $%d", argIdx)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update workspace settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateWorkspaceOwner(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE workspaces SET owner_id = $2, updated_at = NOW() WHERE id = $1`, id, ownerID)
	if err != nil {
		return fmt.Errorf("update workspace owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Readings ---

const readingColumns = `id, workspace_id, created_at, online, uptime_seconds,
	 sessions_active, sessions_total, crons_enabled, crons_total, cost_today, cost_month,
	 tokens_input, tokens_output, model_usage, system, checks, custom, error_count, last_error`

func (s *PostgresStore) InsertReading(ctx context.Context, r *models.Reading) error {
	modelUsage, err := marshalNilable(r.ModelUsage != nil, r.ModelUsage)
	if err != nil {
		return fmt.Errorf("marshal model usage: %w", err)
	}
	system, err := marshalNilable(r.System != nil, r.System)
	if err != nil {
		return fmt.Errorf("marshal system metrics: %w", err)
	}
	checks, err := marshalNilable(r.Checks != nil, r.Checks)
	if err != nil {
		return fmt.Errorf("marshal checks: %w", err)
	}
	custom, err := marshalNilable(r.Custom != nil, r.Custom)
	if err != nil {
		return fmt.Errorf("marshal custom metrics: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO readings (id, workspace_id, created_at, online, uptime_seconds,
		   sessions_active, sessions_total, crons_enabled, crons_total, cost_today, cost_month,
		   tokens_input, tokens_output, model_usage, system, checks, custom, error_count, last_error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		r.ID, r.WorkspaceID, r.CreatedAt, r.Online, r.UptimeSeconds,
		r.SessionsActive, r.SessionsTotal, r.CronsEnabled, r.CronsTotal, r.CostToday, r.CostMonth,
		r.TokensInput, r.TokensOutput, modelUsage, system, checks, custom, r.ErrorCount, r.LastError)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestReading(ctx context.Context, workspaceID uuid.UUID) (*models.Reading, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+readingColumns+` FROM readings
		 WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT 1`, workspaceID)
	r, err := scanReading(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListReadings(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*models.Reading, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+readingColumns+` FROM readings
		 WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT $2`, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()
	return collectReadings(rows)
}

func (s *PostgresStore) ListReadingsSince(ctx context.Context, workspaceID uuid.UUID, since time.Time, limit int) ([]*models.Reading, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+readingColumns+` FROM readings
		 WHERE workspace_id = $1 AND created_at >= $2 ORDER BY created_at DESC LIMIT $3`,
		workspaceID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings since: %w", err)
	}
	defer rows.Close()
	return collectReadings(rows)
}

func (s *PostgresStore) UptimeCounts(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int, int, error) {
	var online, total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE online), COUNT(*)
		 FROM readings WHERE workspace_id = $1 AND created_at >= $2`, workspaceID, since,
	).Scan(&online, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("uptime counts: %w", err)
	}
	return online, total, nil
}

func scanReading(row pgx.Row) (*models.Reading, error) {
	var r models.Reading
	var modelUsage, system, checks, custom []byte
	err := row.Scan(&r.ID, &r.WorkspaceID, &r.CreatedAt, &r.Online, &r.UptimeSeconds,
		&r.SessionsActive, &r.SessionsTotal, &r.CronsEnabled, &r.CronsTotal, &r.CostToday, &r.CostMonth,
		&r.TokensInput, &r.TokensOutput, &modelUsage, &system, &checks, &custom, &r.ErrorCount, &r.LastError)
	if err != nil {
		return nil, err
	}
	if modelUsage != nil {
		if err := json.Unmarshal(modelUsage, &r.ModelUsage); err != nil {
			return nil, fmt.Errorf("unmarshal model usage: %w", err)
		}
	}
	if system != nil {
		if err := json.Unmarshal(system, &r.System); err != nil {
			return nil, fmt.Errorf("unmarshal system metrics: %w", err)
		}
	}
	if checks != nil {
		if err := json.Unmarshal(checks, &r.Checks); err != nil {
			return nil, fmt.Errorf("unmarshal checks: %w", err)
		}
	}
	if custom != nil {
		if err := json.Unmarshal(custom, &r.Custom); err != nil {
			return nil, fmt.Errorf("unmarshal custom metrics: %w", err)
		}
	}
	return &r, nil
}

func collectReadings(rows pgx.Rows) ([]*models.Reading, error) {
	var readings []*models.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// marshalNilable keeps absent optional sections as SQL NULL instead of the
// JSON literal "null".
func marshalNilable(present bool, v any) ([]byte, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

// --- Invites ---

func (s *PostgresStore) CreateInvite(ctx context.Context, inv *models.Invite) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invites (id, token, workspace_id, expires_at, used_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, inv.Token, inv.WorkspaceID, inv.ExpiresAt, inv.UsedAt, inv.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	var inv models.Invite
	err := s.pool.QueryRow(ctx,
		`SELECT id, token, workspace_id, expires_at, used_at, created_at
		 FROM invites WHERE token = $1`, token,
	).Scan(&inv.ID, &inv.Token, &inv.WorkspaceID, &inv.ExpiresAt, &inv.UsedAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by token: %w", err)
	}
	return &inv, nil
}

// ConsumeInvite marks an invite used. The used_at IS NULL guard makes
// consumption race-safe: only one of two concurrent accepts wins.
func (s *PostgresStore) ConsumeInvite(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invites SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, usedAt)
	if err != nil {
		return fmt.Errorf("consume invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInviteUsed
	}
	return nil
}

// --- Users ---

func (s *PostgresStore) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()`,
		u.ID, u.Email, u.Name, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
