package collector

import (
	"encoding/json"
	"os"

	"github.com/agentpulse/agentpulse/pkg/models"
)

// cronJob is one entry in the gateway's job definition file.
type cronJob struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Enabled  bool   `json:"enabled"`
}

// collectCrons counts job definitions. A missing file means no jobs are
// configured and is not a failure.
func collectCrons(path string) (models.CronCounts, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.CronCounts{}, nil
	}
	if err != nil {
		return models.CronCounts{}, err
	}

	var jobs []cronJob
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return models.CronCounts{}, err
	}

	counts := models.CronCounts{Total: len(jobs)}
	for _, job := range jobs {
		if job.Enabled {
			counts.Enabled++
		}
	}
	return counts, nil
}
