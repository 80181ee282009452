package collector

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// collectCustom runs each configured shell command and parses its stdout as
// a float. Failing commands are recorded and skipped.
func (c *Collector) collectCustom(ctx context.Context, errs *errTracker) map[string]float64 {
	if len(c.cfg.Custom) == 0 {
		return nil
	}

	out := make(map[string]float64, len(c.cfg.Custom))
	for _, metric := range c.cfg.Custom {
		value, err := runCustomMetric(ctx, metric.Command, c.cfg.ProbeTimeout)
		if err != nil {
			errs.record("custom:"+metric.Name, err)
			continue
		}
		out[metric.Name] = value
	}
	return out
}

func runCustomMetric(ctx context.Context, command string, timeout time.Duration) (float64, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := exec.CommandContext(cmdCtx, "/bin/sh", "-c", command).Output()
	if err != nil {
		return 0, fmt.Errorf("running %q: %w", command, err)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing output of %q: %w", command, err)
	}
	return value, nil
}
