package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"wrmon/internal/board"
	"wrmon/internal/collector"
	"wrmon/internal/config"
	"wrmon/internal/db"
	"wrmon/internal/display"
	"wrmon/internal/metrics"
	"wrmon/internal/scheduler"
	"wrmon/internal/source"
	"wrmon/internal/web"
)

type App struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer

	board     *board.Board
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	collector *collector.Service
	scheduler *scheduler.Scheduler
	display   *display.Renderer

	repo    *db.Repository
	httpSrv *http.Server
}

func New(cfg config.Config, logger *slog.Logger, out io.Writer) (*App, error) {
	src, err := source.New(cfg.Source, cfg.IncludeLoopback)
	if err != nil {
		return nil, err
	}
	return newWithSource(cfg, logger, out, src)
}

func newWithSource(cfg config.Config, logger *slog.Logger, out io.Writer, src source.MetricsSource) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	b := board.New()

	a := &App{
		cfg:       cfg,
		log:       logger,
		out:       out,
		board:     b,
		registry:  reg,
		metrics:   m,
		collector: collector.NewService(src, board.Fanout{b, m}, cfg.ReadTimeout, logger.With("module", "collector"), m),
		display:   display.NewRenderer(b),
	}
	a.scheduler = scheduler.New(logger.With("module", "scheduler"),
		scheduler.Job{Name: "network", Interval: cfg.NetworkInterval, Run: a.collector.TickNetwork},
		scheduler.Job{Name: "storage", Interval: cfg.StorageInterval, Immediate: true, Run: a.collector.TickStorage},
	)

	if cfg.DBPath != "" {
		sqldb, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(sqldb); err != nil {
			_ = sqldb.Close()
			return nil, err
		}
		a.repo = db.NewRepository(sqldb)
	}
	if cfg.Addr != "" {
		w := web.NewServer(b, reg, logger.With("module", "web"))
		a.httpSrv = &http.Server{Addr: cfg.Addr, Handler: w.Routes(), ReadHeaderTimeout: 5 * time.Second}
	}
	return a, nil
}

// Run samples and redraws until ctx is cancelled, then waits for every
// goroutine it started.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if a.httpSrv != nil {
		a.httpSrv.BaseContext = func(net.Listener) context.Context { return ctx }
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.log.Info("http server listening", "addr", a.cfg.Addr)
			if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("http server failed", "err", err)
			}
		}()
	}
	if a.repo != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.repo.Mirror(ctx, a.board, a.log.With("module", "db"))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.display.Run(ctx, a.out, time.Second); err != nil {
			a.log.Error("display stopped", "err", err)
		}
	}()

	a.collector.Prime(ctx)
	a.scheduler.Run(ctx)

	if a.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.httpSrv.Shutdown(shutdownCtx)
		cancel()
	}
	wg.Wait()
	return a.Close()
}

// Once takes a baseline, waits one network interval, samples everything a
// single time and prints one frame.
func (a *App) Once(ctx context.Context) error {
	a.collector.Prime(ctx)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.NetworkInterval):
	}
	a.collector.TickNetwork(ctx)
	a.collector.TickStorage(ctx)
	if a.repo != nil {
		if s, ver := a.board.Network.Load(); ver > 0 {
			if err := a.repo.SaveNetwork(ctx, s); err != nil {
				a.log.Warn("save network sample", "err", err)
			}
		}
		if rep, ver := a.board.Storage.Load(); ver > 0 {
			if err := a.repo.SaveStorage(ctx, rep); err != nil {
				a.log.Warn("save storage report", "err", err)
			}
		}
	}
	a.display.Render(a.out)
	return a.Close()
}

func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.DB().Close()
}

// Status prints the values mirrored by a running instance.
func Status(ctx context.Context, cfg config.Config, out io.Writer) error {
	if cfg.DBPath == "" {
		return errors.New("status needs a database path (db_path, WRMON_DB_PATH or -db)")
	}
	sqldb, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	if err := db.Migrate(sqldb); err != nil {
		return err
	}
	repo := db.NewRepository(sqldb)

	b := board.New()
	s, err := repo.LatestNetwork(ctx)
	switch {
	case err == nil:
		b.PublishNetwork(s)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("read network sample: %w", err)
	}
	rep, err := repo.LatestStorage(ctx)
	switch {
	case err == nil:
		b.PublishStorage(rep)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("read storage report: %w", err)
	}
	display.NewRenderer(b).Render(out)
	return nil
}
