package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	NetworkInterval time.Duration `yaml:"network_interval"`
	StorageInterval time.Duration `yaml:"storage_interval"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	Source          string        `yaml:"source"`
	IncludeLoopback bool          `yaml:"include_loopback"`
	DBPath          string        `yaml:"db_path"`
	Addr            string        `yaml:"addr"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	LogFile         string        `yaml:"log_file"`
}

func Default() Config {
	return Config{
		NetworkInterval: time.Second,
		StorageInterval: 5 * time.Second,
		ReadTimeout:     2 * time.Second,
		Source:          "gopsutil",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// DefaultPath is read by LoadDefault when no config file was named.
const DefaultPath = "wrmon.yaml"

// Load layers defaults, the YAML file at path and WRMON_* environment
// variables, in that order. A named file that does not exist is an error.
func Load(path string) (Config, error) {
	return load(path, false)
}

// LoadDefault is Load for DefaultPath, except that a missing file is fine.
func LoadDefault() (Config, error) {
	return load(DefaultPath, true)
}

func load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case optional && errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.NetworkInterval = getenvDuration("WRMON_NETWORK_INTERVAL", c.NetworkInterval)
	c.StorageInterval = getenvDuration("WRMON_STORAGE_INTERVAL", c.StorageInterval)
	c.ReadTimeout = getenvDuration("WRMON_READ_TIMEOUT", c.ReadTimeout)
	c.Source = getenv("WRMON_SOURCE", c.Source)
	c.IncludeLoopback = getenvBool("WRMON_INCLUDE_LOOPBACK", c.IncludeLoopback)
	c.DBPath = getenv("WRMON_DB_PATH", c.DBPath)
	c.Addr = getenv("WRMON_ADDR", c.Addr)
	c.LogLevel = getenv("WRMON_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("WRMON_LOG_FORMAT", c.LogFormat)
	c.LogFile = getenv("WRMON_LOG_FILE", c.LogFile)
}

func (c Config) Validate() error {
	if c.NetworkInterval <= 0 || c.StorageInterval <= 0 {
		return fmt.Errorf("intervals must be positive (network %s, storage %s)", c.NetworkInterval, c.StorageInterval)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	switch c.Source {
	case "gopsutil", "procfs":
	default:
		return fmt.Errorf("unknown source %q: must be gopsutil or procfs", c.Source)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q: must be text or json", c.LogFormat)
	}
	return nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvDuration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return d
	}
	return dur
}

func getenvBool(k string, d bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return d
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	return d
}
