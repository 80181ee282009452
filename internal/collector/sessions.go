package collector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
)

// sessionRecord is one agent session state file, written by the gateway as
// <session-id>.json under the session directory.
type sessionRecord struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	LastActive   time.Time `json:"last_active"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
}

// collectSessions reads the session state directory. A missing directory is
// not a failure: the gateway simply has no sessions yet, so counts degrade
// to zero. Unreadable individual files are skipped.
func collectSessions(dir string, now time.Time, activeWindow time.Duration) (models.SessionCounts, []sessionRecord, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return models.SessionCounts{}, nil, nil
	}
	if err != nil {
		return models.SessionCounts{}, nil, err
	}

	var counts models.SessionCounts
	var records []sessionRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var rec sessionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		counts.Total++
		if now.Sub(rec.LastActive) <= activeWindow {
			counts.Active++
		}
		records = append(records, rec)
	}

	return counts, records, nil
}
