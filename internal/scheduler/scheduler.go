package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Job struct {
	Name     string
	Interval time.Duration
	// Immediate runs the job once before the first tick.
	Immediate bool
	Run       func(ctx context.Context)
}

// Scheduler runs every job in its own goroutine on its own ticker. Jobs share
// nothing; a slow job only delays itself. Ticks that fire while a job is
// still running are dropped, not queued.
type Scheduler struct {
	jobs      []Job
	log       *slog.Logger
	newTicker func(time.Duration) (<-chan time.Time, func())
}

func New(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, log: logger, newTicker: realTicker}
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Run blocks until ctx is cancelled and every job loop has returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	ticks, stop := s.newTicker(j.Interval)
	defer stop()
	log := s.log.With("job", j.Name)
	log.Debug("job started", "interval", j.Interval)
	defer log.Debug("job stopped")

	if j.Immediate {
		s.runOnce(ctx, log, j)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			s.runOnce(ctx, log, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *slog.Logger, j Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "err", fmt.Errorf("%v", r))
		}
	}()
	j.Run(ctx)
}
