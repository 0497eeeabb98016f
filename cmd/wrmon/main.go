package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wrmon/internal/app"
	"wrmon/internal/config"
)

// Version can be set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default ./wrmon.yaml if present)")
	once := flag.Bool("once", false, "Sample once, print a single frame and exit")
	status := flag.Bool("status", false, "Print the values mirrored by a running instance and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	sourceFlag := flag.String("source", "", "Metrics source: gopsutil or procfs")
	addrFlag := flag.String("addr", "", "Serve /metrics, /api/latest and /ws on this address")
	dbFlag := flag.String("db", "", "Mirror latest values into this sqlite file")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn or error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wrmon version %s\n", Version)
		return
	}

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wrmon: %v\n", err)
		os.Exit(2)
	}
	override(&cfg.Source, *sourceFlag)
	override(&cfg.Addr, *addrFlag)
	override(&cfg.DBPath, *dbFlag)
	override(&cfg.LogLevel, *logLevel)
	override(&cfg.LogFormat, *logFormat)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "wrmon: %v\n", err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wrmon: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *status {
		if err := app.Status(ctx, cfg, os.Stdout); err != nil {
			logger.Error("status failed", "err", err)
			fmt.Fprintf(os.Stderr, "wrmon: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting wrmon", "version", Version, "source", cfg.Source,
		"network_interval", cfg.NetworkInterval, "storage_interval", cfg.StorageInterval)
	a, err := app.New(cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("init failed", "err", err)
		fmt.Fprintf(os.Stderr, "wrmon: %v\n", err)
		os.Exit(1)
	}
	if *once {
		err = a.Once(ctx)
	} else {
		err = a.Run(ctx)
	}
	if err != nil {
		logger.Error("shutdown with error", "err", err)
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// newLogger writes to LogFile when set; stdout belongs to the dashboard.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), closeFn, nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), closeFn, nil
}
