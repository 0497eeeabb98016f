package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"wrmon/internal/models"
)

var (
	ErrSourceUnavailable = errors.New("metrics source unavailable")
	ErrPermissionDenied  = errors.New("permission denied")
)

// MetricsSource supplies point-in-time OS counters and partition usage.
// Usage reads fail with ErrPermissionDenied or ErrSourceUnavailable.
type MetricsSource interface {
	ReadNetworkCounters(ctx context.Context) (models.CounterSnapshot, error)
	ListMountedPartitions(ctx context.Context) ([]models.MountedPartition, error)
	ReadPartitionUsage(ctx context.Context, mountPoint string) (models.PartitionUsage, error)
}

func New(kind string, includeLoopback bool) (MetricsSource, error) {
	switch kind {
	case "", "gopsutil":
		return NewGopsutil(includeLoopback), nil
	case "procfs":
		return NewProcfs(includeLoopback), nil
	default:
		return nil, fmt.Errorf("unknown metrics source %q", kind)
	}
}

func classify(op string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%s: %w: %w", op, ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrSourceUnavailable, err)
}

func isLoopback(iface string) bool {
	return iface == "lo" || iface == "lo0" || strings.HasPrefix(iface, "Loopback")
}
