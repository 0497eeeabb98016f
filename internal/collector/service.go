package collector

import (
	"context"
	"log/slog"
	"time"

	"wrmon/internal/board"
	"wrmon/internal/metrics"
	"wrmon/internal/source"
)

// Service runs one sampling cycle per call and publishes the result. A
// failed cycle publishes nothing, so the previous value stays visible.
type Service struct {
	src     source.MetricsSource
	sink    board.Sink
	sampler *RateSampler
	storage *PartitionAggregator
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewService(src source.MetricsSource, sink board.Sink, readTimeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		src:     src,
		sink:    sink,
		sampler: NewRateSampler(logger, m),
		storage: NewPartitionAggregator(src, readTimeout, logger, m),
		log:     logger,
		metrics: m,
	}
}

// Prime takes the network baseline so the first tick already yields a rate.
func (s *Service) Prime(ctx context.Context) {
	snap, err := s.src.ReadNetworkCounters(ctx)
	if err != nil {
		s.log.Warn("network baseline", "err", err)
		return
	}
	s.sampler.Initialize(snap)
}

func (s *Service) TickNetwork(ctx context.Context) {
	snap, err := s.src.ReadNetworkCounters(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("read network counters", "err", err)
			s.metrics.CycleDone("network", err)
		}
		return
	}
	s.sink.PublishNetwork(s.sampler.Tick(snap))
	s.metrics.CycleDone("network", nil)
}

func (s *Service) TickStorage(ctx context.Context) {
	report, err := s.storage.Collect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("collect storage", "err", err)
			s.metrics.CycleDone("storage", err)
		}
		return
	}
	s.sink.PublishStorage(report)
	s.metrics.CycleDone("storage", nil)
}
