package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/procwatch/internal/config"
	"github.com/zjrosen/procwatch/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the input loop.
	_ = lipgloss.HasDarkBackground()
}

var (
	version     = "dev"
	cfgFile     string
	debugFlag   bool
	noColorFlag bool
	cfg         config.Config

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "procwatch",
	Short: "Watch and control processes on an orchestration server",
	Long: `procwatch observes the lifecycle of processes running on a remote
workflow orchestration server: fetch a process status, wait for it to finish,
watch it live in the terminal, or terminate it.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .procwatch/config.yaml or ~/.config/procwatch/config.yaml)")
	pf.BoolVarP(&debugFlag, "debug", "d", false, "write a debug log (also PROCWATCH_DEBUG=1)")
	pf.BoolVar(&noColorFlag, "no-color", false, "disable colored output (also NO_COLOR=1)")
	pf.StringP("server", "s", "", "server base URL (overrides server.url)")
	pf.String("api-key", "", "API key sent in the Authorization header (overrides server.api_key)")
	pf.String("token-file", "", "file holding the API key (overrides server.token_file)")
	pf.Duration("request-timeout", 0, "per-request timeout (overrides server.timeout)")
}

// flagBindings maps config keys to persistent flags.
var flagBindings = map[string]string{
	"server.url":        "server",
	"server.api_key":    "api-key",
	"server.token_file": "token-file",
	"server.timeout":    "request-timeout",
}

func initConfig() {
	for key, flag := range flagBindings {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}

	viper.SetEnvPrefix("PROCWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := config.Defaults()
	viper.SetDefault("server.url", defaults.Server.URL)
	viper.SetDefault("server.api_key", defaults.Server.APIKey)
	viper.SetDefault("server.token_file", defaults.Server.TokenFile)
	viper.SetDefault("server.timeout", defaults.Server.Timeout)
	viper.SetDefault("server.user_agent", defaults.Server.UserAgent)
	viper.SetDefault("poll.interval", defaults.Poll.Interval)
	viper.SetDefault("poll.stop_on_terminal", defaults.Poll.StopOnTerminal)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.path", defaults.History.Path)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .procwatch/config.yaml (current directory)
		// 2. ~/.config/procwatch/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			viper.AddConfigPath(userConfigDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			// First run: write a commented default the user can edit.
			defaultPath := filepath.Join(userConfigDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
	cfg.Server.TokenFile = config.ExpandHome(cfg.Server.TokenFile)
	cfg.History.Path = config.ExpandHome(cfg.History.Path)
	cfg.Tracing.FilePath = config.ExpandHome(cfg.Tracing.FilePath)
}

const localConfigPath = ".procwatch/config.yaml"

func userConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".procwatch")
	}
	return filepath.Join(home, ".config", "procwatch")
}

// configPath returns the file in use, or where one would be written.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(userConfigDir(), "config.yaml")
}

func setup(cmd *cobra.Command, _ []string) error {
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if debugFlag || os.Getenv("PROCWATCH_DEBUG") != "" {
		logPath := os.Getenv("PROCWATCH_LOG")
		if logPath == "" {
			logPath = cfg.Log.File
		}
		cleanup, err := log.InitWithTeaLog(logPath, "procwatch")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		logCleanup = cleanup
		log.Info(log.CatConfig, "procwatch starting", "command", cmd.CommandPath(), "config", viper.ConfigFileUsed())
	}

	// The config command must work on a broken config so it can be fixed.
	if isConfigCommand(cmd) {
		return nil
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func closeLog() {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

// Execute runs the root command
func Execute() error {
	defer closeLog()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
