//go:build linux

package source

import (
	"syscall"

	"wrmon/internal/models"
)

func statfsUsage(path string) (models.PartitionUsage, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return models.PartitionUsage{}, err
	}
	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	return models.PartitionUsage{
		TotalBytes: total,
		UsedBytes:  total - st.Bfree*bsize,
		FreeBytes:  st.Bavail * bsize,
	}, nil
}
