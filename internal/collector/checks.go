package collector

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sync/errgroup"
)

// collectChecks probes the configured HTTP endpoints and process names.
// Endpoint probes run concurrently, one goroutine per endpoint, each with
// its own timeout; a failed probe is a result, not a collection error.
func (c *Collector) collectChecks(ctx context.Context, errs *errTracker) *models.CheckResults {
	if len(c.cfg.Endpoints) == 0 && len(c.cfg.Processes) == 0 {
		return nil
	}

	results := &models.CheckResults{}

	if len(c.cfg.Endpoints) > 0 {
		results.Endpoints = make([]models.EndpointCheck, len(c.cfg.Endpoints))
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for i, url := range c.cfg.Endpoints {
			g.Go(func() error {
				check := probeEndpoint(gctx, url, c.cfg.ProbeTimeout)
				mu.Lock()
				results.Endpoints[i] = check
				mu.Unlock()
				return nil
			})
		}
		// Probes never return errors; Wait only orders completion.
		_ = g.Wait()
	}

	if len(c.cfg.Processes) > 0 {
		procs, err := processChecks(ctx, c.cfg.Processes)
		if err != nil {
			errs.record("processes", err)
		} else {
			results.Processes = procs
		}
	}

	return results
}

func probeEndpoint(ctx context.Context, url string, timeout time.Duration) models.EndpointCheck {
	check := models.EndpointCheck{URL: url}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		check.Error = err.Error()
		return check
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	check.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = err.Error()
		return check
	}
	defer resp.Body.Close()

	check.Status = resp.StatusCode
	check.Up = resp.StatusCode >= 200 && resp.StatusCode < 400
	return check
}

// processChecks scans the process table once and matches each configured
// name against running process names.
func processChecks(ctx context.Context, names []string) ([]models.ProcessCheck, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	running := make(map[string]int)
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		running[strings.ToLower(name)]++
	}

	checks := make([]models.ProcessCheck, 0, len(names))
	for _, name := range names {
		count := running[strings.ToLower(name)]
		checks = append(checks, models.ProcessCheck{
			Name:    name,
			Running: count > 0,
			Count:   count,
		})
	}
	return checks, nil
}

// processRunning reports whether any process with the given name is up.
func processRunning(ctx context.Context, name string) (bool, error) {
	checks, err := processChecks(ctx, []string{name})
	if err != nil {
		return false, err
	}
	return checks[0].Running, nil
}
