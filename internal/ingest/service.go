// Package ingest owns the sole write path into the reading store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/agentpulse/agentpulse/internal/alert"
	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

// Service appends readings and runs the post-insert alert checks.
type Service struct {
	store  store.Store
	alerts *alert.Evaluator
	now    func() time.Time
}

// NewService creates an ingestion Service.
func NewService(s store.Store, alerts *alert.Evaluator) *Service {
	return &Service{store: s, alerts: alerts, now: time.Now}
}

// Submit inserts exactly one reading for the workspace, then synchronously
// evaluates alert conditions before returning. Alert and webhook failures
// never propagate: the submission succeeds once the insert does. Two
// identical submissions produce two distinct readings; there is no
// deduplication key.
func (s *Service) Submit(ctx context.Context, ws *models.Workspace, payload models.ReportPayload) (*models.Reading, error) {
	reading := payload.Reading(ws.ID)
	reading.ID = uuid.New()
	reading.CreatedAt = s.now().UTC()

	if err := s.store.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("insert reading: %w", err)
	}

	s.alerts.Evaluate(ctx, ws, reading)

	return reading, nil
}
