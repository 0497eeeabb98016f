package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wrmon/internal/metrics"
	"wrmon/internal/models"
	"wrmon/internal/source"
)

type PartitionReadError struct {
	MountPoint string
	Err        error
}

func (e *PartitionReadError) Error() string {
	return fmt.Sprintf("read partition %s: %v", e.MountPoint, e.Err)
}

func (e *PartitionReadError) Unwrap() error { return e.Err }

type PartitionAggregator struct {
	src     source.MetricsSource
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewPartitionAggregator(src source.MetricsSource, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *PartitionAggregator {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PartitionAggregator{src: src, timeout: timeout, log: logger, metrics: m, now: time.Now}
}

// ListPartitions returns usage for every mounted partition that could be
// read. Unreadable partitions are skipped; only a failure to list the
// mounts at all is returned.
func (a *PartitionAggregator) ListPartitions(ctx context.Context) ([]models.PartitionInfo, error) {
	mounts, err := a.src.ListMountedPartitions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PartitionInfo, 0, len(mounts))
	seen := make(map[string]bool, len(mounts))
	for _, m := range mounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seen[m.MountPoint] {
			continue
		}
		seen[m.MountPoint] = true

		usage, err := a.readUsage(ctx, m.MountPoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, source.ErrPermissionDenied) {
				a.log.Debug("skip unreadable partition", "mount", m.MountPoint)
				a.metrics.PartitionSkipped("permission")
				continue
			}
			perr := &PartitionReadError{MountPoint: m.MountPoint, Err: err}
			a.log.Warn("skip partition", "mount", m.MountPoint, "err", perr)
			if errors.Is(err, context.DeadlineExceeded) {
				a.metrics.PartitionSkipped("timeout")
			} else {
				a.metrics.PartitionSkipped("error")
			}
			continue
		}
		out = append(out, models.PartitionInfo{
			Device:      m.Device,
			MountPoint:  m.MountPoint,
			Fstype:      m.Fstype,
			TotalBytes:  usage.TotalBytes,
			UsedBytes:   usage.UsedBytes,
			FreeBytes:   usage.FreeBytes,
			UsedPercent: percent(usage.UsedBytes, usage.UsedBytes+usage.FreeBytes),
		})
	}
	return out, nil
}

func (a *PartitionAggregator) Collect(ctx context.Context) (models.StorageReport, error) {
	parts, err := a.ListPartitions(ctx)
	if err != nil {
		return models.StorageReport{}, err
	}
	return models.StorageReport{
		Partitions: parts,
		Disks:      AggregateByPhysicalDisk(parts),
		TakenAt:    a.now(),
	}, nil
}

// readUsage bounds a single usage read. A read stuck in the kernel (stalled
// network filesystem) is abandoned; its goroutine exits once the call returns.
func (a *PartitionAggregator) readUsage(ctx context.Context, mountPoint string) (models.PartitionUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		usage models.PartitionUsage
		err   error
	}
	done := make(chan result, 1)
	go func() {
		u, err := a.src.ReadPartitionUsage(ctx, mountPoint)
		done <- result{usage: u, err: err}
	}()
	select {
	case r := <-done:
		return r.usage, r.err
	case <-ctx.Done():
		return models.PartitionUsage{}, fmt.Errorf("usage %s: %w: %w", mountPoint, source.ErrSourceUnavailable, ctx.Err())
	}
}

// AggregateByPhysicalDisk groups partitions by DiskID in first-seen order and
// sums their usage, so each disk's totals equal the sum of its partitions.
// Disks with zero total are dropped.
func AggregateByPhysicalDisk(parts []models.PartitionInfo) []models.PhysicalDiskInfo {
	groups := map[string]*models.PhysicalDiskInfo{}
	var order []string
	for _, p := range parts {
		id := DiskID(p.Device)
		d, ok := groups[id]
		if !ok {
			d = &models.PhysicalDiskInfo{DiskID: id}
			groups[id] = d
			order = append(order, id)
		}
		d.MountPoints = append(d.MountPoints, p.MountPoint)
		d.TotalBytes += p.TotalBytes
		d.UsedBytes += p.UsedBytes
		d.FreeBytes += p.FreeBytes
	}

	out := make([]models.PhysicalDiskInfo, 0, len(order))
	for _, id := range order {
		d := *groups[id]
		if d.TotalBytes == 0 {
			continue
		}
		d.UsedPercent = percent(d.UsedBytes, d.TotalBytes)
		out = append(out, d)
	}
	return out
}

// DiskID strips the trailing run of ASCII digits from a device name:
// "sda1" -> "sda", "/dev/sdb12" -> "/dev/sdb". Names without trailing digits,
// or made only of digits, map to themselves.
//
// This is a naming heuristic. Schemes that are not <base><index>, such as
// NVMe's nvme0n1p1, are grouped under "nvme0n1p".
func DiskID(device string) string {
	i := len(device)
	for i > 0 && device[i-1] >= '0' && device[i-1] <= '9' {
		i--
	}
	if i == 0 {
		return device
	}
	return device[:i]
}

func percent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}
