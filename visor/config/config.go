// Package config loads procvisor's settings: built-in defaults, then an
// optional YAML file, then PROCVISOR_* environment variables. Command line
// flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log         LogConfig      `yaml:"log"`
	Server      ServerConfig   `yaml:"server"`
	LogMux      LogMuxConfig   `yaml:"logmux"`
	Shutdown    ShutdownConfig `yaml:"shutdown"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Interactive string         `yaml:"interactive"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	// Command is the application server and its arguments.
	Command []string `yaml:"command"`
	// ExitSignal is sent to the server on shutdown, e.g. "TERM" or "QUIT".
	ExitSignal string `yaml:"exit_signal"`
	// Dir is the server's working directory. Empty keeps procvisor's own.
	Dir string `yaml:"dir"`
	// Env holds KEY=VALUE pairs added to the server's environment.
	Env []string `yaml:"env"`
}

type LogMuxConfig struct {
	Files        []string      `yaml:"files"`
	Mode         string        `yaml:"mode"`
	TailProgram  string        `yaml:"tail_program"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type ShutdownConfig struct {
	// Grace is how long each subprocess gets between its exit signal and
	// SIGKILL. Zero waits forever.
	Grace time.Duration `yaml:"grace"`
	// KillAfter bounds the whole shutdown. Zero waits forever.
	KillAfter time.Duration `yaml:"kill_after"`
}

type MetricsConfig struct {
	// Addr enables the metrics server when set.
	Addr string `yaml:"addr"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Command:    []string{"php-fpm", "--nodaemonize"},
			ExitSignal: "TERM",
		},
		LogMux: LogMuxConfig{
			Files:        []string{"/var/log/php-fpm/error.log", "/var/log/php-fpm/access.log"},
			Mode:         "tail",
			TailProgram:  "tail",
			PollInterval: time.Second,
		},
		Interactive: "auto",
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// not empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := cfg.loadFromEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

func (c *Config) loadFromEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if val, ok := lookup(key); ok && val != "" {
			*dst = val
		}
	}
	dur := func(key string, dst *time.Duration) {
		if val, ok := lookup(key); ok && val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PROCVISOR_LOG_LEVEL", &c.Log.Level)
	str("PROCVISOR_LOG_FORMAT", &c.Log.Format)
	if val, ok := lookup("PROCVISOR_SERVER_CMD"); ok && val != "" {
		c.Server.Command = strings.Fields(val)
	}
	str("PROCVISOR_EXIT_SIGNAL", &c.Server.ExitSignal)
	str("PROCVISOR_SERVER_DIR", &c.Server.Dir)
	if val, ok := lookup("PROCVISOR_LOG_FILES"); ok && val != "" {
		c.LogMux.Files = filepath.SplitList(val)
	}
	str("PROCVISOR_FOLLOW_MODE", &c.LogMux.Mode)
	str("PROCVISOR_TAIL_PROGRAM", &c.LogMux.TailProgram)
	dur("PROCVISOR_POLL_INTERVAL", &c.LogMux.PollInterval)
	dur("PROCVISOR_GRACE", &c.Shutdown.Grace)
	dur("PROCVISOR_KILL_AFTER", &c.Shutdown.KillAfter)
	str("PROCVISOR_METRICS_ADDR", &c.Metrics.Addr)
	str("PROCVISOR_INTERACTIVE", &c.Interactive)

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of [debug, info, warn, error], got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of [text, json], got %q", c.Log.Format))
	}

	if len(c.Server.Command) == 0 || c.Server.Command[0] == "" {
		errs = append(errs, errors.New("server.command must name a program"))
	}
	if _, err := ParseSignal(c.Server.ExitSignal); err != nil {
		errs = append(errs, fmt.Errorf("server.exit_signal: %w", err))
	}
	for _, kv := range c.Server.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, fmt.Errorf("server.env entries must be KEY=VALUE, got %q", kv))
		}
	}

	if len(c.LogMux.Files) == 0 {
		errs = append(errs, errors.New("logmux.files must list at least one file"))
	}
	for _, f := range c.LogMux.Files {
		if f == "" {
			errs = append(errs, errors.New("logmux.files must not contain empty paths"))
			break
		}
	}
	switch c.LogMux.Mode {
	case "tail", "native":
	default:
		errs = append(errs, fmt.Errorf("logmux.mode must be one of [tail, native], got %q", c.LogMux.Mode))
	}
	if c.LogMux.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("logmux.poll_interval must be positive, got %v", c.LogMux.PollInterval))
	}

	if c.Shutdown.Grace < 0 {
		errs = append(errs, fmt.Errorf("shutdown.grace must not be negative, got %v", c.Shutdown.Grace))
	}
	if c.Shutdown.KillAfter < 0 {
		errs = append(errs, fmt.Errorf("shutdown.kill_after must not be negative, got %v", c.Shutdown.KillAfter))
	}

	switch c.Interactive {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("interactive must be one of [auto, always, never], got %q", c.Interactive))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseSignal accepts a signal name with or without the SIG prefix, in any
// case.
func ParseSignal(name string) (syscall.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	sig := unix.SignalNum(n)
	if sig == 0 {
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}
