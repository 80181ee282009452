package collector

import (
	"context"
	"net"

	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// collectSystem gathers host-level resource usage. Individual counters
// degrade to zero on failure; only a total host-info failure is reported
// as a section error.
func collectSystem(ctx context.Context) (*models.SystemMetrics, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	metrics := &models.SystemMetrics{
		Hostname:       info.Hostname,
		Platform:       info.Platform,
		HostUptimeSecs: info.Uptime,
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		metrics.CPUPercent = pct[0]
	}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		metrics.MemoryPercent = v.UsedPercent
	}
	if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
		metrics.DiskPercent = d.UsedPercent
	}
	metrics.LocalIP = localIP()

	return metrics, nil
}

// localIP returns the first non-loopback IPv4 address, or empty when none
// is assigned.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
