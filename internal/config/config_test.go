package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/procwatch/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "http://localhost:8001", cfg.Server.URL)
	require.Equal(t, 30*time.Second, cfg.Server.Timeout)
	require.Equal(t, 2*time.Second, cfg.Poll.Interval)
	require.True(t, cfg.Poll.StopOnTerminal)
	require.True(t, cfg.History.Enabled)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Tracing.Enabled, "tracing should be disabled by default")
	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		server  ServerConfig
		wantErr string
	}{
		{name: "valid", server: ServerConfig{URL: "https://concord.example.com"}},
		{name: "missing url", server: ServerConfig{}, wantErr: "server.url is required"},
		{name: "bad scheme", server: ServerConfig{URL: "ftp://x"}, wantErr: "http or https"},
		{name: "no host", server: ServerConfig{URL: "http://"}, wantErr: "must include a host"},
		{name: "key and file", server: ServerConfig{URL: "http://x", APIKey: "k", TokenFile: "/t"}, wantErr: "mutually exclusive"},
		{name: "negative timeout", server: ServerConfig{URL: "http://x", Timeout: -time.Second}, wantErr: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServer(tt.server)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidatePoll(t *testing.T) {
	require.NoError(t, ValidatePoll(PollConfig{Interval: time.Second}))
	require.NoError(t, ValidatePoll(PollConfig{Interval: MinPollInterval}))
	require.ErrorContains(t, ValidatePoll(PollConfig{Interval: 10 * time.Millisecond}), "poll.interval")
	require.Error(t, ValidatePoll(PollConfig{}))
}

func TestValidateLog(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "error"} {
		require.NoError(t, ValidateLog(LogConfig{Level: level}), level)
	}
	require.ErrorContains(t, ValidateLog(LogConfig{Level: "trace"}), "log.level")
}

func TestValidateTracing(t *testing.T) {
	require.NoError(t, ValidateTracing(tracing.DefaultConfig()))
	require.ErrorContains(t, ValidateTracing(tracing.Config{SampleRate: 1.5}), "sample_rate")
	require.ErrorContains(t, ValidateTracing(tracing.Config{Exporter: "jaeger"}), "tracing.exporter")
	require.ErrorContains(t,
		ValidateTracing(tracing.Config{Enabled: true, Exporter: tracing.ExporterFile}),
		"file_path is required")
	require.ErrorContains(t,
		ValidateTracing(tracing.Config{Enabled: true, Exporter: tracing.ExporterOTLP}),
		"otlp_endpoint is required")
	require.NoError(t, ValidateTracing(tracing.Config{Exporter: tracing.ExporterFile}),
		"file_path only required when enabled")
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.URL = ""
	cfg.Poll.Interval = 0

	err := Validate(cfg)
	require.ErrorContains(t, err, "server.url")
	require.ErrorContains(t, err, "poll.interval")
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "secret"

	red := cfg.Redacted()
	require.Equal(t, "********", red.Server.APIKey)
	require.Equal(t, "secret", cfg.Server.APIKey, "original is untouched")

	require.Empty(t, Defaults().Redacted().Server.APIKey, "empty key stays empty")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

// The template must decode to the same values Defaults() sets.
func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	def := Defaults()
	require.Equal(t, def.Server.URL, cfg.Server.URL)
	require.Equal(t, def.Server.Timeout, cfg.Server.Timeout)
	require.Equal(t, def.Poll, cfg.Poll)
	require.Equal(t, def.History.Enabled, cfg.History.Enabled)
	require.Equal(t, def.Log, cfg.Log)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, ".procwatch", "token"), ExpandHome("~/.procwatch/token"))
	require.Equal(t, home, ExpandHome("~"))
	require.Equal(t, "/etc/token", ExpandHome("/etc/token"))
	require.Equal(t, "~other/x", ExpandHome("~other/x"))
}
