package source

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	psnet "github.com/shirou/gopsutil/v4/net"

	"wrmon/internal/models"
)

type Gopsutil struct {
	includeLoopback bool
	now             func() time.Time
}

func NewGopsutil(includeLoopback bool) *Gopsutil {
	return &Gopsutil{includeLoopback: includeLoopback, now: time.Now}
}

func (g *Gopsutil) ReadNetworkCounters(ctx context.Context) (models.CounterSnapshot, error) {
	stats, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return models.CounterSnapshot{}, classify("read net counters", err)
	}
	snap := models.CounterSnapshot{TakenAt: g.now()}
	for _, s := range stats {
		if !g.includeLoopback && isLoopback(s.Name) {
			continue
		}
		snap.BytesSent += s.BytesSent
		snap.BytesReceived += s.BytesRecv
	}
	return snap, nil
}

func (g *Gopsutil) ListMountedPartitions(ctx context.Context) ([]models.MountedPartition, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, classify("list partitions", err)
	}
	out := make([]models.MountedPartition, 0, len(parts))
	for _, p := range parts {
		out = append(out, models.MountedPartition{Device: p.Device, MountPoint: p.Mountpoint, Fstype: p.Fstype})
	}
	return out, nil
}

func (g *Gopsutil) ReadPartitionUsage(ctx context.Context, mountPoint string) (models.PartitionUsage, error) {
	u, err := disk.UsageWithContext(ctx, mountPoint)
	if err != nil {
		return models.PartitionUsage{}, classify("usage "+mountPoint, err)
	}
	return models.PartitionUsage{TotalBytes: u.Total, UsedBytes: u.Used, FreeBytes: u.Free}, nil
}
