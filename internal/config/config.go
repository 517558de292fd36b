// Package config provides configuration types and defaults for procwatch.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/tracing"
)

// Config holds all configuration options for procwatch.
type Config struct {
	Server  ServerConfig   `mapstructure:"server" yaml:"server"`
	Poll    PollConfig     `mapstructure:"poll" yaml:"poll"`
	History HistoryConfig  `mapstructure:"history" yaml:"history"`
	Log     LogConfig      `mapstructure:"log" yaml:"log"`
	Tracing tracing.Config `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig describes how to reach the orchestration server.
type ServerConfig struct {
	URL string `mapstructure:"url" yaml:"url"`

	// APIKey is sent verbatim in the Authorization header.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// TokenFile is read for the API key instead of APIKey, and re-read when it changes.
	TokenFile string `mapstructure:"token_file" yaml:"token_file,omitempty"`

	// Timeout bounds each HTTP request. Zero means no client-side timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent,omitempty"`
}

// PollConfig controls status polling for wait and watch.
type PollConfig struct {
	Interval       time.Duration `mapstructure:"interval" yaml:"interval"`
	StopOnTerminal bool          `mapstructure:"stop_on_terminal" yaml:"stop_on_terminal"`
}

// HistoryConfig controls the local status transition history.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"` // default: ~/.procwatch/history.db
}

// LogConfig controls the debug log written when --debug is set.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	File  string `mapstructure:"file" yaml:"file"`
}

// MinPollInterval is the smallest accepted poll interval.
const MinPollInterval = 100 * time.Millisecond

// DefaultHistoryPath returns ~/.procwatch/history.db, or "" if the home
// directory is unavailable.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".procwatch", "history.db")
}

// DefaultTracesFilePath returns ~/.config/procwatch/traces/traces.jsonl, or ""
// if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "procwatch", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		Server: ServerConfig{
			URL:     "http://localhost:8001",
			Timeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval:       2 * time.Second,
			StopOnTerminal: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		Log: LogConfig{
			Level: "debug",
			File:  "debug.log",
		},
		Tracing: tc,
	}
}

// Validate runs every section validator and joins their errors.
func Validate(cfg Config) error {
	return errors.Join(
		ValidateServer(cfg.Server),
		ValidatePoll(cfg.Poll),
		ValidateLog(cfg.Log),
		ValidateTracing(cfg.Tracing),
	)
}

// ValidateServer checks the server URL and credential settings.
func ValidateServer(s ServerConfig) error {
	if s.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got %q", s.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url must include a host, got %q", s.URL)
	}
	if s.APIKey != "" && s.TokenFile != "" {
		return fmt.Errorf("server.api_key and server.token_file are mutually exclusive")
	}
	if s.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative, got %v", s.Timeout)
	}
	return nil
}

// ValidatePoll checks polling settings.
func ValidatePoll(p PollConfig) error {
	if p.Interval < MinPollInterval {
		return fmt.Errorf("poll.interval must be at least %v, got %v", MinPollInterval, p.Interval)
	}
	return nil
}

// ValidateLog checks logging settings. An empty level means debug.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	// Paths only matter once tracing is on.
	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// Redacted returns a copy safe to print: the API key is masked.
func (c Config) Redacted() Config {
	if c.Server.APIKey != "" {
		c.Server.APIKey = "********"
	}
	return c
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# procwatch configuration

# Orchestration server
server:
  url: http://localhost:8001
  # API key sent in the Authorization header. Prefer token_file or the
  # PROCWATCH_SERVER_API_KEY environment variable over storing it here.
  # api_key: ""
  #
  # Read the API key from a file; the file is re-read when it changes.
  # token_file: ~/.procwatch/token
  timeout: 30s            # per-request timeout, 0 disables

# Status polling (wait, watch)
poll:
  interval: 2s            # minimum 100ms
  stop_on_terminal: true  # stop polling once FINISHED, FAILED or CANCELLED

# Local history of observed status transitions
history:
  enabled: true
  # path: ~/.procwatch/history.db

# Debug log, written only with --debug or PROCWATCH_DEBUG=1
log:
  level: debug            # debug, info, warn, error
  file: debug.log

# Distributed tracing
# tracing:
#   enabled: false                 # default: false
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/procwatch/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # for the otlp exporter
#   sample_rate: 1.0               # 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
