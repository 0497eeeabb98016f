package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"wrmon/internal/models"
)

const namespace = "wrmon"

// Metrics is wrmon's own instrumentation. It also acts as a publish sink so
// the latest rates and disk usage can be scraped. A nil *Metrics is a no-op.
type Metrics struct {
	cycles    *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	skipped   *prometheus.CounterVec

	uploadRate    prometheus.Gauge
	downloadRate  prometheus.Gauge
	diskUsedRatio *prometheus.GaugeVec
	diskUsedBytes *prometheus.GaugeVec
	partitions    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampling_cycles_total",
			Help:      "Completed sampling cycles by job and result.",
		}, []string{"job", "result"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_resets_total",
			Help:      "Network counter decreases clamped to a zero rate.",
		}, []string{"direction"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_skipped_total",
			Help:      "Partitions excluded from a storage cycle.",
		}, []string{"reason"}),
		uploadRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upload_bytes_per_second",
			Help:      "Latest upload rate.",
		}),
		downloadRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "download_bytes_per_second",
			Help:      "Latest download rate.",
		}),
		diskUsedRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_used_ratio",
			Help:      "Used fraction (0-1) per physical disk.",
		}, []string{"disk"}),
		diskUsedBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_used_bytes",
			Help:      "Used bytes per physical disk.",
		}, []string{"disk"}),
		partitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "readable_partitions",
			Help:      "Partitions read successfully in the latest storage cycle.",
		}),
	}
	reg.MustRegister(m.cycles, m.anomalies, m.skipped, m.uploadRate, m.downloadRate, m.diskUsedRatio, m.diskUsedBytes, m.partitions)
	return m
}

func (m *Metrics) CycleDone(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cycles.WithLabelValues(job, result).Inc()
}

func (m *Metrics) CounterReset(direction string) {
	if m == nil {
		return
	}
	m.anomalies.WithLabelValues(direction).Inc()
}

func (m *Metrics) PartitionSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) PublishNetwork(s models.RateSample) {
	if m == nil {
		return
	}
	m.uploadRate.Set(s.UploadRate)
	m.downloadRate.Set(s.DownloadRate)
}

func (m *Metrics) PublishStorage(r models.StorageReport) {
	if m == nil {
		return
	}
	m.diskUsedRatio.Reset()
	m.diskUsedBytes.Reset()
	for _, d := range r.Disks {
		m.diskUsedRatio.WithLabelValues(d.DiskID).Set(d.UsedPercent / 100)
		m.diskUsedBytes.WithLabelValues(d.DiskID).Set(float64(d.UsedBytes))
	}
	m.partitions.Set(float64(len(r.Partitions)))
}
