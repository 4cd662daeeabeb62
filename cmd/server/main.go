package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/config"
	"github.com/event-radar/backend/internal/logger"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	portFlag   int
)

var rootCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Realtime presence and notification fanout service",
	// Running with no subcommand serves.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml")
	rootCmd.PersistentFlags().IntVarP(&portFlag, "port", "p", 0, "HTTP port (overrides config and PORT)")
}

// loadConfig resolves settings: defaults, then config file, then
// environment, then flags.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("loading config: %w", err)
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
