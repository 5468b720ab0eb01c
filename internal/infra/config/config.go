// Package config loads fleetd's YAML configuration with FLEETD_* env
// overrides and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fleetd/internal/domain"
)

// SupervisorConfig holds worker launch and restart-policy settings shared
// by every agent supervisor.
type SupervisorConfig struct {
	Worker          string `yaml:"worker"`           // worker executable path
	RestartGuard    string `yaml:"restart_guard"`    // duration string, default "10s"
	RestartAnnounce string `yaml:"restart_announce"` // default "process restarted"
}

// ProxyConfig holds the registration collaborator settings.
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"` // ws:// or wss:// endpoint
}

// JournalConfig holds the lifecycle journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite file path
}

// ReporterConfig holds the periodic fleet status report settings.
type ReporterConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression, default "*/5 * * * *"
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout or noop
}

// Config is the top-level application configuration.
type Config struct {
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Journal    JournalConfig    `yaml:"journal"`
	Reporter   ReporterConfig   `yaml:"reporter"`
	Logger     LoggerConfig     `yaml:"logger"`
	Tracer     TracerConfig     `yaml:"tracer"`
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		Supervisor: SupervisorConfig{
			Worker:          "fleet-worker",
			RestartGuard:    "10s",
			RestartAnnounce: "process restarted",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "fleetd.db",
		},
		Reporter: ReporterConfig{
			Enabled:  false,
			Schedule: "*/5 * * * *",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
		},
	}
}

// Load reads the config file at path, applies env overrides, and validates.
// A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfigLoad, path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfigLoad, path, err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps FLEETD_* env vars onto config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLEETD_SUPERVISOR_WORKER"); v != "" {
		cfg.Supervisor.Worker = v
	}
	if v := os.Getenv("FLEETD_SUPERVISOR_RESTART_GUARD"); v != "" {
		cfg.Supervisor.RestartGuard = v
	}
	if v := os.Getenv("FLEETD_PROXY_URL"); v != "" {
		cfg.Proxy.Enabled = true
		cfg.Proxy.URL = v
	}
	if v := os.Getenv("FLEETD_JOURNAL_PATH"); v != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = v
	}
	if v := os.Getenv("FLEETD_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("FLEETD_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("FLEETD_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
		if cfg.Tracer.Exporter == "" || cfg.Tracer.Exporter == "noop" {
			cfg.Tracer.Exporter = "stdout"
		}
	}
}

// Validate checks the configuration, joining all problems into one error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Supervisor.Worker == "" {
		errs = append(errs, fmt.Errorf("supervisor.worker must not be empty"))
	}
	if _, err := time.ParseDuration(cfg.Supervisor.RestartGuard); err != nil {
		errs = append(errs, fmt.Errorf("supervisor.restart_guard: %w", err))
	}
	if cfg.Proxy.Enabled && cfg.Proxy.URL == "" {
		errs = append(errs, fmt.Errorf("proxy.url required when proxy.enabled"))
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		errs = append(errs, fmt.Errorf("journal.path required when journal.enabled"))
	}
	switch cfg.Logger.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be text or json, got %q", cfg.Logger.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// GuardDuration returns the parsed restart guard window.
func (c SupervisorConfig) GuardDuration() time.Duration {
	d, err := time.ParseDuration(c.RestartGuard)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
