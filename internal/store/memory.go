package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

// readingRetention caps how long the ephemeral backend keeps readings.
// 25 hours leaves headroom over the longest read-path window that matters
// for a live dashboard (24h).
const readingRetention = 25 * time.Hour

// MemoryStore is the ephemeral Store implementation, used when no
// DATABASE_URL is configured. Everything lives in process memory and is
// lost on restart; readings older than the retention window are swept on
// every insert.
type MemoryStore struct {
	mu         sync.RWMutex
	workspaces map[uuid.UUID]*models.Workspace
	readings   map[uuid.UUID][]*models.Reading // newest last
	invites    map[uuid.UUID]*models.Invite
	users      map[uuid.UUID]*models.User

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workspaces: make(map[uuid.UUID]*models.Workspace),
		readings:   make(map[uuid.UUID][]*models.Reading),
		invites:    make(map[uuid.UUID]*models.Invite),
		users:      make(map[uuid.UUID]*models.User),
		now:        time.Now,
	}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// --- Workspaces ---

func (s *MemoryStore) CreateWorkspace(_ context.Context, ws *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws.Slug != nil {
		for _, existing := range s.workspaces {
			if existing.Slug != nil && *existing.Slug == *ws.Slug {
				return ErrDuplicateKey
			}
		}
	}
	cp := *ws
	s.workspaces[ws.ID] = &cp
	return nil
}

func (s *MemoryStore) GetWorkspaceByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ws
	return &cp, nil
}

func (s *MemoryStore) GetWorkspaceBySlug(_ context.Context, slug string) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ws := range s.workspaces {
		if ws.Slug != nil && *ws.Slug == slug {
			cp := *ws
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetWorkspaceByHostname(_ context.Context, hostname string) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Reading
	var bestWS uuid.UUID
	for wsID, readings := range s.readings {
		for i := len(readings) - 1; i >= 0; i-- {
			r := readings[i]
			if r.System == nil || r.System.Hostname != hostname {
				continue
			}
			if best == nil || r.CreatedAt.After(best.CreatedAt) {
				best = r
				bestWS = wsID
			}
			break
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	ws, ok := s.workspaces[bestWS]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ws
	return &cp, nil
}

func (s *MemoryStore) GetWorkspacesByKeyPrefix(_ context.Context, prefix string) ([]*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Workspace
	for _, ws := range s.workspaces {
		if ws.KeyPrefix == prefix {
			cp := *ws
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateWorkspaceSettings(_ context.Context, id uuid.UUID, settings AlertSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return ErrNotFound
	}
	if settings.Slug != nil {
		for otherID, other := range s.workspaces {
			if otherID != id && other.Slug != nil && *other.Slug == *settings.Slug {
				return ErrDuplicateKey
			}
		}
		ws.Slug = settings.Slug
	}
	if settings.Name != nil {
		ws.Name = *settings.Name
	}
	if settings.Public != nil {
		ws.Public = *settings.Public
	}
	if settings.CostThreshold != nil {
		ws.AlertCostThreshold = settings.CostThreshold
	} else if settings.ClearCostThreshold {
		ws.AlertCostThreshold = nil
	}
	if settings.DowntimeMinutes != nil {
		ws.AlertDowntimeMinutes = settings.DowntimeMinutes
	} else if settings.ClearDowntimeMinutes {
		ws.AlertDowntimeMinutes = nil
	}
	if settings.WebhookURL != nil {
		ws.AlertWebhookURL = settings.WebhookURL
	} else if settings.ClearWebhook {
		ws.AlertWebhookURL = nil
	}
	ws.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) UpdateWorkspaceOwner(_ context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return ErrNotFound
	}
	owner := ownerID
	ws.OwnerID = &owner
	ws.UpdatedAt = s.now().UTC()
	return nil
}

// --- Readings ---

func (s *MemoryStore) InsertReading(_ context.Context, r *models.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.readings[r.WorkspaceID] = append(s.readings[r.WorkspaceID], &cp)
	s.sweepLocked(r.WorkspaceID)
	return nil
}

// sweepLocked drops readings past the retention window. Caller holds mu.
func (s *MemoryStore) sweepLocked(workspaceID uuid.UUID) {
	cutoff := s.now().Add(-readingRetention)
	readings := s.readings[workspaceID]
	keep := readings[:0]
	for _, r := range readings {
		if r.CreatedAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	s.readings[workspaceID] = keep
}

// sortedDesc returns a copy of a workspace's readings, newest first.
// Insertion order is not trusted: submitter clocks may skew.
func (s *MemoryStore) sortedDesc(workspaceID uuid.UUID) []*models.Reading {
	readings := s.readings[workspaceID]
	out := make([]*models.Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) LatestReading(_ context.Context, workspaceID uuid.UUID) (*models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := s.sortedDesc(workspaceID)
	if len(sorted) == 0 {
		return nil, ErrNotFound
	}
	cp := *sorted[0]
	return &cp, nil
}

func (s *MemoryStore) ListReadings(_ context.Context, workspaceID uuid.UUID, limit int) ([]*models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Reading
	for _, r := range s.sortedDesc(workspaceID) {
		if len(out) >= limit {
			break
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) ListReadingsSince(_ context.Context, workspaceID uuid.UUID, since time.Time, limit int) ([]*models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Reading
	for _, r := range s.sortedDesc(workspaceID) {
		if len(out) >= limit {
			break
		}
		if r.CreatedAt.Before(since) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) UptimeCounts(_ context.Context, workspaceID uuid.UUID, since time.Time) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var online, total int
	for _, r := range s.readings[workspaceID] {
		if r.CreatedAt.Before(since) {
			continue
		}
		total++
		if r.Online {
			online++
		}
	}
	return online, total, nil
}

// --- Invites ---

func (s *MemoryStore) CreateInvite(_ context.Context, inv *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invites {
		if existing.Token == inv.Token {
			return ErrDuplicateKey
		}
	}
	cp := *inv
	s.invites[inv.ID] = &cp
	return nil
}

func (s *MemoryStore) GetInviteByToken(_ context.Context, token string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invites {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ConsumeInvite(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[id]
	if !ok {
		return ErrNotFound
	}
	if inv.UsedAt != nil {
		return ErrInviteUsed
	}
	used := usedAt
	inv.UsedAt = &used
	return nil
}

// --- Users ---

func (s *MemoryStore) UpsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if existing, ok := s.users[u.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
		cp.UpdatedAt = s.now().UTC()
	}
	s.users[u.ID] = &cp
	return nil
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
