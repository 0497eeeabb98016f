package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const netDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 5000      10    0    0    0     0          0         0     5000      10    0    0    0     0       0          0
  eth0: 1000      20    0    0    0     0          0         0     300       15    0    0    0     0       0          0
 wlan0: 24        2     0    0    0     0          0         0     76        1     0    0    0     0       0          0
`

func TestParseNetDevSkipsLoopback(t *testing.T) {
	rx, tx, err := parseNetDev(strings.NewReader(netDev), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rx != 1024 || tx != 376 {
		t.Fatalf("rx=%d tx=%d, want 1024/376", rx, tx)
	}
	rx, tx, _ = parseNetDev(strings.NewReader(netDev), true)
	if rx != 6024 || tx != 5376 {
		t.Fatalf("with loopback rx=%d tx=%d, want 6024/5376", rx, tx)
	}
}

func TestParseMountsKeepsDeviceBackedOnly(t *testing.T) {
	mounts := `/dev/sda1 / ext4 rw,relatime 0 0
proc /proc proc rw,nosuid 0 0
tmpfs /run tmpfs rw 0 0
/dev/sda2 /mnt/my\040disk ext4 rw 0 0
/dev/sdb1 /data xfs rw 0 0
`
	parts, err := parseMounts(strings.NewReader(mounts))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(parts), parts)
	}
	if parts[1].MountPoint != "/mnt/my disk" || parts[1].Device != "/dev/sda2" {
		t.Fatalf("unexpected second mount: %+v", parts[1])
	}
	if parts[2].Fstype != "xfs" {
		t.Fatalf("fstype = %q, want xfs", parts[2].Fstype)
	}
}

func TestUnescapeMount(t *testing.T) {
	cases := map[string]string{
		"/plain":         "/plain",
		`/a\040b`:        "/a b",
		`/tab\011x`:      "/tab\tx",
		`/trailing\04`:   `/trailing\04`,
		`/back\134slash`: `/back\slash`,
	}
	for in, want := range cases {
		if got := unescapeMount(in); got != want {
			t.Fatalf("unescapeMount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProcfsReadsFromRoot(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "net", "dev"), netDev)
	mustWrite(t, filepath.Join(root, "self", "mounts"), "/dev/nvme0n1p2 / ext4 rw 0 0\n")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &Procfs{root: root, now: func() time.Time { return at }}
	snap, err := p.ReadNetworkCounters(context.Background())
	if err != nil {
		t.Fatalf("read counters: %v", err)
	}
	if snap.BytesSent != 376 || snap.BytesReceived != 1024 || !snap.TakenAt.Equal(at) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	parts, err := p.ListMountedPartitions(context.Background())
	if err != nil {
		t.Fatalf("list mounts: %v", err)
	}
	if len(parts) != 1 || parts[0].Device != "/dev/nvme0n1p2" {
		t.Fatalf("unexpected mounts: %+v", parts)
	}
}

func TestProcfsMissingRootIsUnavailable(t *testing.T) {
	p := &Procfs{root: filepath.Join(t.TempDir(), "nope"), now: time.Now}
	if _, err := p.ReadNetworkCounters(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestClassify(t *testing.T) {
	if err := classify("usage /x", os.ErrPermission); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("permission error not classified: %v", err)
	}
	err := classify("usage /x", errors.New("io"))
	if !errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("generic error misclassified: %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New("gopsutil", false); err != nil {
		t.Fatalf("gopsutil: %v", err)
	}
	if _, err := New("procfs", false); err != nil {
		t.Fatalf("procfs: %v", err)
	}
	if _, err := New("wmi", false); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func mustWrite(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
