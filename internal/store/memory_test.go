package store

import (
	"context"
	"testing"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memWorkspace(slug string) *models.Workspace {
	ws := &models.Workspace{
		ID:        uuid.New(),
		Name:      "test-ws",
		KeyHash:   "hash",
		KeyPrefix: "apk_1234",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if slug != "" {
		ws.Slug = &slug
	}
	return ws
}

func memReading(wsID uuid.UUID, at time.Time, online bool) *models.Reading {
	return &models.Reading{
		ID:          uuid.New(),
		WorkspaceID: wsID,
		CreatedAt:   at,
		Online:      online,
	}
}

func TestMemory_WorkspaceLookups(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ws := memWorkspace("prod")
	require.NoError(t, s.CreateWorkspace(ctx, ws))

	got, err := s.GetWorkspaceByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, ws.Name, got.Name)

	got, err = s.GetWorkspaceBySlug(ctx, "prod")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)

	_, err = s.GetWorkspaceBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	candidates, err := s.GetWorkspacesByKeyPrefix(ctx, "apk_1234")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestMemory_DuplicateSlug(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateWorkspace(ctx, memWorkspace("taken")))
	err := s.CreateWorkspace(ctx, memWorkspace("taken"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemory_UpdateSettings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ws := memWorkspace("")
	require.NoError(t, s.CreateWorkspace(ctx, ws))

	threshold := 25.0
	public := true
	require.NoError(t, s.UpdateWorkspaceSettings(ctx, ws.ID, AlertSettings{
		CostThreshold: &threshold,
		Public:        &public,
	}))

	got, err := s.GetWorkspaceByID(ctx, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AlertCostThreshold)
	assert.Equal(t, 25.0, *got.AlertCostThreshold)
	assert.True(t, got.Public)

	// Clearing removes the threshold outright.
	require.NoError(t, s.UpdateWorkspaceSettings(ctx, ws.ID, AlertSettings{
		ClearCostThreshold: true,
	}))
	got, err = s.GetWorkspaceByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AlertCostThreshold)
}

func TestMemory_UpdateSettingsDuplicateSlug(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateWorkspace(ctx, memWorkspace("first")))
	ws := memWorkspace("second")
	require.NoError(t, s.CreateWorkspace(ctx, ws))

	taken := "first"
	err := s.UpdateWorkspaceSettings(ctx, ws.ID, AlertSettings{Slug: &taken})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemory_ReadingsOrderedNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	wsID := uuid.New()
	now := time.Now().UTC()

	// Inserted out of order on purpose.
	middle := memReading(wsID, now.Add(-10*time.Minute), true)
	newest := memReading(wsID, now, false)
	oldest := memReading(wsID, now.Add(-20*time.Minute), true)
	for _, r := range []*models.Reading{middle, newest, oldest} {
		require.NoError(t, s.InsertReading(ctx, r))
	}

	latest, err := s.LatestReading(ctx, wsID)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, latest.ID)

	list, err := s.ListReadings(ctx, wsID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newest.ID, list[0].ID)
	assert.Equal(t, middle.ID, list[1].ID)

	since, err := s.ListReadingsSince(ctx, wsID, now.Add(-15*time.Minute), 100)
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestMemory_LatestReadingEmpty(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.LatestReading(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_UptimeCounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	wsID := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, s.InsertReading(ctx, memReading(wsID, now.Add(-30*time.Minute), true)))
	require.NoError(t, s.InsertReading(ctx, memReading(wsID, now.Add(-5*time.Minute), true)))
	require.NoError(t, s.InsertReading(ctx, memReading(wsID, now, false)))

	online, total, err := s.UptimeCounts(ctx, wsID, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, online)
	assert.Equal(t, 2, total)

	online, total, err = s.UptimeCounts(ctx, wsID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, online)
	assert.Equal(t, 3, total)
}

func TestMemory_RetentionSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	wsID := uuid.New()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	stale := memReading(wsID, base.Add(-26*time.Hour), true)
	fresh := memReading(wsID, base.Add(-time.Hour), true)
	require.NoError(t, s.InsertReading(ctx, stale))
	require.NoError(t, s.InsertReading(ctx, fresh))

	list, err := s.ListReadings(ctx, wsID, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestMemory_InviteLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	inv := &models.Invite{
		ID:          uuid.New(),
		Token:       "tok-abc",
		WorkspaceID: uuid.New(),
		ExpiresAt:   now.Add(time.Hour),
		CreatedAt:   now,
	}
	require.NoError(t, s.CreateInvite(ctx, inv))

	got, err := s.GetInviteByToken(ctx, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Nil(t, got.UsedAt)

	require.NoError(t, s.ConsumeInvite(ctx, inv.ID, now))

	// Second consumption must fail: invites are single-use.
	err = s.ConsumeInvite(ctx, inv.ID, now)
	assert.ErrorIs(t, err, ErrInviteUsed)

	got, err = s.GetInviteByToken(ctx, "tok-abc")
	require.NoError(t, err)
	assert.NotNil(t, got.UsedAt)
}

func TestMemory_InviteDuplicateToken(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func() *models.Invite {
		return &models.Invite{
			ID: uuid.New(), Token: "same-token", WorkspaceID: uuid.New(),
			ExpiresAt: now.Add(time.Hour), CreatedAt: now,
		}
	}
	require.NoError(t, s.CreateInvite(ctx, mk()))
	assert.ErrorIs(t, s.CreateInvite(ctx, mk()), ErrDuplicateKey)
}

func TestMemory_UpdateWorkspaceOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ws := memWorkspace("")
	require.NoError(t, s.CreateWorkspace(ctx, ws))

	ownerID := uuid.New()
	require.NoError(t, s.UpdateWorkspaceOwner(ctx, ws.ID, ownerID))

	got, err := s.GetWorkspaceByID(ctx, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, ownerID, *got.OwnerID)

	assert.ErrorIs(t, s.UpdateWorkspaceOwner(ctx, uuid.New(), ownerID), ErrNotFound)
}

func TestMemory_GetWorkspaceByHostname(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	ws := memWorkspace("")
	require.NoError(t, s.CreateWorkspace(ctx, ws))

	r := memReading(ws.ID, now, true)
	r.System = &models.SystemMetrics{Hostname: "agent-host-1"}
	require.NoError(t, s.InsertReading(ctx, r))

	got, err := s.GetWorkspaceByHostname(ctx, "agent-host-1")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)

	_, err = s.GetWorkspaceByHostname(ctx, "never-reported")
	assert.ErrorIs(t, err, ErrNotFound)
}
