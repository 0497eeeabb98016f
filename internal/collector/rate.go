package collector

import (
	"log/slog"

	"wrmon/internal/metrics"
	"wrmon/internal/models"
)

// RateSampler turns cumulative network counters into bytes/second rates.
// It is owned by a single sampling job and is not safe for concurrent use.
type RateSampler struct {
	prev    *models.CounterSnapshot
	last    models.RateSample
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewRateSampler(logger *slog.Logger, m *metrics.Metrics) *RateSampler {
	return &RateSampler{log: logger, metrics: m}
}

func (r *RateSampler) Initialize(s models.CounterSnapshot) {
	r.prev = &s
	r.last = models.RateSample{At: s.TakenAt}
}

// Tick computes rates against the stored baseline and makes cur the new
// baseline. Without a baseline it returns a zero sample. If no time has
// passed since the baseline, the previous sample is returned unchanged.
func (r *RateSampler) Tick(cur models.CounterSnapshot) models.RateSample {
	if r.prev == nil {
		r.Initialize(cur)
		return r.last
	}
	elapsed := cur.TakenAt.Sub(r.prev.TakenAt)
	if elapsed <= 0 {
		return r.last
	}
	sent, sentReset := counterDelta(cur.BytesSent, r.prev.BytesSent)
	recv, recvReset := counterDelta(cur.BytesReceived, r.prev.BytesReceived)
	if sentReset {
		r.log.Warn("sent counter went backwards, clamping upload rate", "prev", r.prev.BytesSent, "cur", cur.BytesSent)
		r.metrics.CounterReset("upload")
	}
	if recvReset {
		r.log.Warn("received counter went backwards, clamping download rate", "prev", r.prev.BytesReceived, "cur", cur.BytesReceived)
		r.metrics.CounterReset("download")
	}

	secs := elapsed.Seconds()
	r.last = models.RateSample{
		UploadRate:   float64(sent) / secs,
		DownloadRate: float64(recv) / secs,
		At:           cur.TakenAt,
		Elapsed:      elapsed,
		Reset:        sentReset || recvReset,
	}
	r.prev = &cur
	return r.last
}

func counterDelta(cur, prev uint64) (uint64, bool) {
	if cur < prev {
		return 0, true
	}
	return cur - prev, false
}
