package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wrmon/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *sql.DB { return r.db }

func (r *Repository) SaveNetwork(ctx context.Context, s models.RateSample) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO latest_network (id,upload_rate,download_rate,elapsed_ms,counter_reset,at)
		VALUES (1,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET upload_rate=excluded.upload_rate,download_rate=excluded.download_rate,
			elapsed_ms=excluded.elapsed_ms,counter_reset=excluded.counter_reset,at=excluded.at`,
		s.UploadRate, s.DownloadRate, s.Elapsed.Milliseconds(), s.Reset, s.At.UTC())
	return err
}

// SaveStorage replaces the stored partition and disk sets in one transaction.
func (r *Repository) SaveStorage(ctx context.Context, rep models.StorageReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM latest_partitions`, `DELETE FROM latest_disks`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for i, p := range rep.Partitions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO latest_partitions
			(position,device,mount_point,fstype,total_bytes,used_bytes,free_bytes,used_percent) VALUES (?,?,?,?,?,?,?,?)`,
			i, p.Device, p.MountPoint, p.Fstype, int64(p.TotalBytes), int64(p.UsedBytes), int64(p.FreeBytes), p.UsedPercent); err != nil {
			return err
		}
	}
	for i, d := range rep.Disks {
		mounts, err := json.Marshal(d.MountPoints)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO latest_disks
			(position,disk_id,total_bytes,used_bytes,free_bytes,used_percent,mount_points_json) VALUES (?,?,?,?,?,?,?)`,
			i, d.DiskID, int64(d.TotalBytes), int64(d.UsedBytes), int64(d.FreeBytes), d.UsedPercent, string(mounts)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO latest_storage (id,taken_at) VALUES (1,?)
		ON CONFLICT(id) DO UPDATE SET taken_at=excluded.taken_at`, rep.TakenAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestNetwork returns sql.ErrNoRows until a sample has been saved.
func (r *Repository) LatestNetwork(ctx context.Context) (models.RateSample, error) {
	var s models.RateSample
	var elapsedMS int64
	err := r.db.QueryRowContext(ctx, `SELECT upload_rate,download_rate,elapsed_ms,counter_reset,at FROM latest_network WHERE id=1`).
		Scan(&s.UploadRate, &s.DownloadRate, &elapsedMS, &s.Reset, &s.At)
	s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return s, err
}

// LatestStorage returns sql.ErrNoRows until a report has been saved.
func (r *Repository) LatestStorage(ctx context.Context) (models.StorageReport, error) {
	var rep models.StorageReport
	if err := r.db.QueryRowContext(ctx, `SELECT taken_at FROM latest_storage WHERE id=1`).Scan(&rep.TakenAt); err != nil {
		return rep, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT device,mount_point,fstype,total_bytes,used_bytes,free_bytes,used_percent
		FROM latest_partitions ORDER BY position ASC`)
	if err != nil {
		return rep, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.PartitionInfo
		var total, used, free int64
		if err := rows.Scan(&p.Device, &p.MountPoint, &p.Fstype, &total, &used, &free, &p.UsedPercent); err != nil {
			return rep, err
		}
		p.TotalBytes, p.UsedBytes, p.FreeBytes = uint64(total), uint64(used), uint64(free)
		rep.Partitions = append(rep.Partitions, p)
	}
	if err := rows.Err(); err != nil {
		return rep, err
	}

	diskRows, err := r.db.QueryContext(ctx, `SELECT disk_id,total_bytes,used_bytes,free_bytes,used_percent,mount_points_json
		FROM latest_disks ORDER BY position ASC`)
	if err != nil {
		return rep, err
	}
	defer diskRows.Close()
	for diskRows.Next() {
		var d models.PhysicalDiskInfo
		var total, used, free int64
		var mounts string
		if err := diskRows.Scan(&d.DiskID, &total, &used, &free, &d.UsedPercent, &mounts); err != nil {
			return rep, err
		}
		d.TotalBytes, d.UsedBytes, d.FreeBytes = uint64(total), uint64(used), uint64(free)
		if err := json.Unmarshal([]byte(mounts), &d.MountPoints); err != nil {
			return rep, fmt.Errorf("disk %s mount points: %w", d.DiskID, err)
		}
		rep.Disks = append(rep.Disks, d)
	}
	return rep, diskRows.Err()
}
