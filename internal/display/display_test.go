package display

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"wrmon/internal/board"
	"wrmon/internal/models"
)

func TestFormatters(t *testing.T) {
	if got := FormatRate(1.5 * 1024 * 1024); got != "1.50 MB/s" {
		t.Fatalf("FormatRate = %q", got)
	}
	if got := FormatRate(0); got != "0.00 MB/s" {
		t.Fatalf("FormatRate(0) = %q", got)
	}
	if got := FormatGB(3*gib + gib/2); got != "3 GB" {
		t.Fatalf("FormatGB = %q", got)
	}
	if got := FormatPercent(66.666); got != "66.7%" {
		t.Fatalf("FormatPercent = %q", got)
	}
}

func TestRenderEmptyBoard(t *testing.T) {
	r := NewRenderer(board.New())
	r.now = func() time.Time { return time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC) }
	var buf bytes.Buffer
	r.Render(&buf)
	out := buf.String()
	for _, want := range []string{title, "09:05:07", "Storage Usage", "Network Traffic", "0.00 MB/s", "waiting for first sample"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPublishedValues(t *testing.T) {
	b := board.New()
	b.PublishNetwork(models.RateSample{UploadRate: 2 * mib, DownloadRate: 0.25 * mib, Reset: true})
	b.PublishStorage(models.StorageReport{
		Partitions: []models.PartitionInfo{{MountPoint: "/", TotalBytes: 100 * gib, UsedBytes: 40 * gib, FreeBytes: 60 * gib, UsedPercent: 40}},
		Disks:      []models.PhysicalDiskInfo{{DiskID: "/dev/sda", TotalBytes: 100 * gib, UsedBytes: 40 * gib, FreeBytes: 60 * gib, UsedPercent: 40, MountPoints: []string{"/", "/boot"}}},
	})
	var buf bytes.Buffer
	NewRenderer(b).Render(&buf)
	out := buf.String()
	for _, want := range []string{"2.00 MB/s", "0.25 MB/s", "100 GB", "40.0%", "/dev/sda", "/, /boot", "counter reset"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "waiting for first sample") {
		t.Fatalf("published board rendered as empty:\n%s", out)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestRunRedrawsOnPublish(t *testing.T) {
	b := board.New()
	r := NewRenderer(b)
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, out, time.Hour) }()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "3.00 MB/s") {
		if time.Now().After(deadline) {
			t.Fatalf("publish not rendered:\n%s", out.String())
		}
		b.PublishNetwork(models.RateSample{DownloadRate: 3 * mib})
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), clearScreen) {
		t.Fatal("frames are not prefixed with a screen clear")
	}
}
