package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/estatelens-cli/internal/api"
	"github.com/KaramelBytes/estatelens-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/estatelens-cli/internal/config"
	"github.com/KaramelBytes/estatelens-cli/internal/logger"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// HTTP flags (override config if set)
	flagBackendURL     string
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
	// appLog is replaced once config is loaded.
	appLog = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "estatelens",
	Short: "EstateLens CLI: ask questions about real-estate market data",
	Long: `EstateLens sends free-text questions about property prices, demand and sales to the
analysis backend and shows the summary, per-location trends and a filterable data table.
Spreadsheets can be uploaded to refresh the backend's dataset.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	_ = appLog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.estatelens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagBackendURL, "backend", "", "analysis backend base URL (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need the backend report it themselves
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("backend") && strings.TrimSpace(flagBackendURL) != "" {
		cfg.BackendURL = strings.TrimSpace(flagBackendURL)
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	appLog = logger.Must(level, cfg.LogFormat)
	appLog.Debug("config loaded",
		zap.String("backend_url", cfg.BackendURL),
		zap.Int("http_timeout_sec", cfg.HTTPTimeoutSec))
}

// requireConfig returns the loaded, validated config.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(c *cfgpkg.Global) *api.Client {
	return api.NewClient(c.BackendURL, time.Duration(c.HTTPTimeoutSec)*time.Second, appLog.Named("api"))
}

func chartOptions(c *cfgpkg.Global) (chart.Options, error) {
	format, err := chart.ParseFormat(c.ChartFormat)
	if err != nil {
		return chart.Options{}, err
	}
	return chart.Options{Width: c.ChartWidth, Height: c.ChartHeight, Format: format}, nil
}
