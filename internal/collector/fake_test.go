package collector

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"wrmon/internal/models"
	"wrmon/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	mu       sync.Mutex
	counters []models.CounterSnapshot
	netErr   error
	mounts   []models.MountedPartition
	listErr  error
	usage    map[string]models.PartitionUsage
	usageErr map[string]error
	hang     map[string]chan struct{}
	reads    map[string]int
}

func (f *fakeSource) ReadNetworkCounters(ctx context.Context) (models.CounterSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.netErr != nil {
		return models.CounterSnapshot{}, f.netErr
	}
	if len(f.counters) == 0 {
		return models.CounterSnapshot{}, source.ErrSourceUnavailable
	}
	s := f.counters[0]
	if len(f.counters) > 1 {
		f.counters = f.counters[1:]
	}
	return s, nil
}

func (f *fakeSource) ListMountedPartitions(ctx context.Context) ([]models.MountedPartition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.mounts, nil
}

func (f *fakeSource) ReadPartitionUsage(ctx context.Context, mountPoint string) (models.PartitionUsage, error) {
	f.mu.Lock()
	if f.reads == nil {
		f.reads = map[string]int{}
	}
	f.reads[mountPoint]++
	hang := f.hang[mountPoint]
	f.mu.Unlock()
	if hang != nil {
		<-hang
	}
	if err := f.usageErr[mountPoint]; err != nil {
		return models.PartitionUsage{}, err
	}
	return f.usage[mountPoint], nil
}
