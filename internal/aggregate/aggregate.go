// Package aggregate computes derived read-time views over stored readings.
// Nothing here is persisted; every function is pure over its inputs.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
)

// OnlineWindow is the staleness bound for the authoritative online check:
// a workspace is online iff its latest reading is at most this old.
const OnlineWindow = 10 * time.Minute

// MaxHistoryRows caps history queries regardless of the requested range.
const MaxHistoryRows = 1000

// readingsPerHour is the sampling assumption used to size history queries
// (one report roughly every five minutes).
const readingsPerHour = 12

// Online reports whether a reading taken at reportedAt still counts as
// online at now. This staleness check is authoritative; the stored online
// flag only feeds the downtime alert.
func Online(reportedAt, now time.Time) bool {
	return now.Sub(reportedAt) <= OnlineWindow
}

// UptimePercent returns online/total as a percentage rounded to the nearest
// integer, or nil when the window holds no readings. Never divides by zero.
func UptimePercent(online, total int) *int {
	if total == 0 {
		return nil
	}
	pct := int(math.Round(float64(online) / float64(total) * 100))
	return &pct
}

// HistoryLimit converts a requested hour range into a row limit:
// min(hours*12, 1000), with a floor of one hour.
func HistoryLimit(hours int) int {
	if hours < 1 {
		hours = 1
	}
	limit := hours * readingsPerHour
	if limit > MaxHistoryRows {
		return MaxHistoryRows
	}
	return limit
}

// AgentGroup aggregates the readings one reported hostname contributed
// within the grouping window.
type AgentGroup struct {
	Hostname       string  `json:"hostname"`
	Readings       int     `json:"readings"`
	LastSeen       string  `json:"last_seen"`
	SessionsActive int     `json:"sessions_active"`
	SessionsTotal  int     `json:"sessions_total"`
	CostToday      float64 `json:"cost_today"`
	AvgCPUPercent  float64 `json:"avg_cpu_percent"`
	AvgMemPercent  float64 `json:"avg_memory_percent"`
	AvgDiskPercent float64 `json:"avg_disk_percent"`
}

// unknownHost buckets readings that carried no system section.
const unknownHost = "unknown"

// GroupByHostname groups readings by reported hostname. Session counts and
// today-cost come from each host's newest reading; resource percentages are
// averaged across the host's readings. Output is sorted by hostname for
// deterministic rendering.
func GroupByHostname(readings []*models.Reading) []AgentGroup {
	if len(readings) == 0 {
		return []AgentGroup{}
	}

	type hostState struct {
		newest  *models.Reading
		count   int
		cpuSum  float64
		memSum  float64
		diskSum float64
	}

	groups := make(map[string]*hostState)

	for _, r := range readings {
		host := unknownHost
		if r.System != nil && r.System.Hostname != "" {
			host = r.System.Hostname
		}
		hs, exists := groups[host]
		if !exists {
			hs = &hostState{newest: r}
			groups[host] = hs
		}

		hs.count++
		if r.CreatedAt.After(hs.newest.CreatedAt) {
			hs.newest = r
		}
		if r.System != nil {
			hs.cpuSum += r.System.CPUPercent
			hs.memSum += r.System.MemoryPercent
			hs.diskSum += r.System.DiskPercent
		}
	}

	out := make([]AgentGroup, 0, len(groups))
	for host, hs := range groups {
		n := float64(hs.count)
		out = append(out, AgentGroup{
			Hostname:       host,
			Readings:       hs.count,
			LastSeen:       hs.newest.CreatedAt.UTC().Format(time.RFC3339),
			SessionsActive: hs.newest.SessionsActive,
			SessionsTotal:  hs.newest.SessionsTotal,
			CostToday:      hs.newest.CostToday,
			AvgCPUPercent:  hs.cpuSum / n,
			AvgMemPercent:  hs.memSum / n,
			AvgDiskPercent: hs.diskSum / n,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out
}

// Incident is a reading that reported offline or carried errors, surfaced
// on the public status page.
type Incident struct {
	At         string `json:"at"`
	Offline    bool   `json:"offline"`
	ErrorCount int    `json:"error_count,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// Incidents filters readings down to offline-or-erroring entries, newest
// first, capped at limit.
func Incidents(readings []*models.Reading, limit int) []Incident {
	out := []Incident{}
	for _, r := range readings {
		if len(out) >= limit {
			break
		}
		hasErrors := r.ErrorCount != nil && *r.ErrorCount > 0
		if r.Online && !hasErrors {
			continue
		}
		inc := Incident{
			At:      r.CreatedAt.UTC().Format(time.RFC3339),
			Offline: !r.Online,
		}
		if r.ErrorCount != nil {
			inc.ErrorCount = *r.ErrorCount
		}
		if r.LastError != nil {
			inc.LastError = *r.LastError
		}
		out = append(out, inc)
	}
	return out
}

// CostSum totals the today-cost field across readings. Used for the
// status page's trailing-24h figure.
func CostSum(readings []*models.Reading) float64 {
	var sum float64
	for _, r := range readings {
		sum += r.CostToday
	}
	return sum
}
