package display

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"wrmon/internal/board"
	"wrmon/internal/models"
)

const (
	title       = "wrmon - Storage + Network Monitor"
	clearScreen = "\x1b[H\x1b[2J"
	mib         = 1024 * 1024
	gib         = 1024 * 1024 * 1024
)

// Renderer draws the board as plain text panels.
type Renderer struct {
	board *board.Board
	now   func() time.Time
}

func NewRenderer(b *board.Board) *Renderer {
	return &Renderer{board: b, now: time.Now}
}

// Run redraws out after every publish and once per clockEvery for the
// header clock, until ctx is done.
func (r *Renderer) Run(ctx context.Context, out io.Writer, clockEvery time.Duration) error {
	changed, cancel := r.board.Subscribe()
	defer cancel()
	ticker := time.NewTicker(clockEvery)
	defer ticker.Stop()

	var buf bytes.Buffer
	for {
		buf.Reset()
		buf.WriteString(clearScreen)
		r.Render(&buf)
		if _, err := out.Write(buf.Bytes()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		case <-ticker.C:
		}
	}
}

func (r *Renderer) Render(w io.Writer) {
	view := r.board.Snapshot()
	fmt.Fprintf(w, "%s    %s\n\n", title, r.now().Format("15:04:05"))
	renderStorage(w, view.Storage)
	fmt.Fprintln(w)
	renderNetwork(w, view.Network)
	fmt.Fprintln(w, "\nctrl+c to quit")
}

func renderStorage(w io.Writer, rep *models.StorageReport) {
	fmt.Fprintln(w, "Storage Usage")
	if rep == nil {
		fmt.Fprintln(w, "  waiting for first sample")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Mount\tTotal\tUsed\tFree\tUsage %")
	for _, p := range rep.Partitions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.MountPoint, FormatGB(p.TotalBytes), FormatGB(p.UsedBytes), FormatGB(p.FreeBytes), FormatPercent(p.UsedPercent))
	}
	tw.Flush()

	fmt.Fprintln(w, "\nPhysical Disks")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Disk\tTotal\tUsed\tFree\tUsage %\tMounts")
	for _, d := range rep.Disks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.DiskID, FormatGB(d.TotalBytes), FormatGB(d.UsedBytes), FormatGB(d.FreeBytes), FormatPercent(d.UsedPercent), strings.Join(d.MountPoints, ", "))
	}
	tw.Flush()
}

func renderNetwork(w io.Writer, s *models.RateSample) {
	fmt.Fprintln(w, "Network Traffic")
	var sample models.RateSample
	if s != nil {
		sample = *s
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Type\tSpeed")
	fmt.Fprintf(tw, "Upload\t%s\n", FormatRate(sample.UploadRate))
	fmt.Fprintf(tw, "Download\t%s\n", FormatRate(sample.DownloadRate))
	tw.Flush()
	if s == nil {
		fmt.Fprintln(w, "  waiting for first sample")
	} else if s.Reset {
		fmt.Fprintln(w, "  counter reset detected, rate clamped")
	}
}

func FormatRate(bytesPerSec float64) string {
	return fmt.Sprintf("%.2f MB/s", bytesPerSec/mib)
}

func FormatGB(b uint64) string {
	return fmt.Sprintf("%d GB", b/gib)
}

func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
