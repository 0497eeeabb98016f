package models

import "time"

type CounterSnapshot struct {
	BytesSent     uint64
	BytesReceived uint64
	TakenAt       time.Time
}

// RateSample rates are in bytes per second.
type RateSample struct {
	UploadRate   float64       `json:"upload_rate"`
	DownloadRate float64       `json:"download_rate"`
	At           time.Time     `json:"at"`
	Elapsed      time.Duration `json:"elapsed"`
	Reset        bool          `json:"reset"`
}

type MountedPartition struct {
	Device     string
	MountPoint string
	Fstype     string
}

type PartitionUsage struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

type PartitionInfo struct {
	Device      string  `json:"device"`
	MountPoint  string  `json:"mount_point"`
	Fstype      string  `json:"fstype"`
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

type PhysicalDiskInfo struct {
	DiskID      string   `json:"disk_id"`
	TotalBytes  uint64   `json:"total_bytes"`
	UsedBytes   uint64   `json:"used_bytes"`
	FreeBytes   uint64   `json:"free_bytes"`
	UsedPercent float64  `json:"used_percent"`
	MountPoints []string `json:"mount_points"`
}

type StorageReport struct {
	Partitions []PartitionInfo    `json:"partitions"`
	Disks      []PhysicalDiskInfo `json:"disks"`
	TakenAt    time.Time          `json:"taken_at"`
}
