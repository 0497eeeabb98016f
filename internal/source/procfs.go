package source

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wrmon/internal/models"
)

// Procfs reads counters straight from /proc. Usage needs statfs, which is
// only wired on Linux.
type Procfs struct {
	root            string
	includeLoopback bool
	now             func() time.Time
}

func NewProcfs(includeLoopback bool) *Procfs {
	return &Procfs{root: "/proc", includeLoopback: includeLoopback, now: time.Now}
}

func (p *Procfs) ReadNetworkCounters(ctx context.Context) (models.CounterSnapshot, error) {
	f, err := os.Open(filepath.Join(p.root, "net", "dev"))
	if err != nil {
		return models.CounterSnapshot{}, classify("read net counters", err)
	}
	defer f.Close()
	rx, tx, err := parseNetDev(f, p.includeLoopback)
	if err != nil {
		return models.CounterSnapshot{}, classify("parse net counters", err)
	}
	return models.CounterSnapshot{BytesSent: tx, BytesReceived: rx, TakenAt: p.now()}, nil
}

func (p *Procfs) ListMountedPartitions(ctx context.Context) ([]models.MountedPartition, error) {
	f, err := os.Open(filepath.Join(p.root, "self", "mounts"))
	if err != nil {
		return nil, classify("list partitions", err)
	}
	defer f.Close()
	parts, err := parseMounts(f)
	if err != nil {
		return nil, classify("parse mounts", err)
	}
	return parts, nil
}

func (p *Procfs) ReadPartitionUsage(ctx context.Context, mountPoint string) (models.PartitionUsage, error) {
	u, err := statfsUsage(mountPoint)
	if err != nil {
		return models.PartitionUsage{}, classify("usage "+mountPoint, err)
	}
	return u, nil
}

func parseNetDev(in io.Reader, includeLoopback bool) (rx, tx uint64, err error) {
	s := bufio.NewScanner(in)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		iface := strings.TrimSpace(parts[0])
		if !includeLoopback && isLoopback(iface) {
			continue
		}
		vals := strings.Fields(parts[1])
		if len(vals) < 16 {
			continue
		}
		r, _ := strconv.ParseUint(vals[0], 10, 64)
		t, _ := strconv.ParseUint(vals[8], 10, 64)
		rx += r
		tx += t
	}
	return rx, tx, s.Err()
}

// parseMounts keeps block-device backed mounts only; pseudo filesystems
// (proc, tmpfs, overlay, ...) have no device path.
func parseMounts(r io.Reader) ([]models.MountedPartition, error) {
	var out []models.MountedPartition
	s := bufio.NewScanner(r)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 3 {
			continue
		}
		if !strings.HasPrefix(fields[0], "/") {
			continue
		}
		out = append(out, models.MountedPartition{
			Device:     unescapeMount(fields[0]),
			MountPoint: unescapeMount(fields[1]),
			Fstype:     fields[2],
		})
	}
	return out, s.Err()
}

// unescapeMount decodes the octal escapes the kernel uses for spaces,
// tabs and backslashes in mount table fields.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
