// Package cmd defines the CLI commands for the content-audit executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/partsignal/content-audit/internal/config"
	"github.com/partsignal/content-audit/internal/logging"
	"github.com/partsignal/content-audit/internal/metrics"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content-audit",
		Short: "Discovers, resolves, and audits product content across sales channels.",
		Long: `content-audit discovers a manufacturer's top products and distributors,
resolves each channel's canonical product page, and audits the content
quality of those pages against the manufacturer's own page as the source
of truth.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	metrics.Init()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigAndLogger loads the config file named by --config and builds
// the root logger from it.
func loadConfigAndLogger() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
