// Command generator builds the almanac artifact, previews month grids and
// exports calendar feeds.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"almanac-platform/internal/almanac"
	"almanac-platform/internal/config"
	"almanac-platform/internal/lunar"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

const version = "1.0.0"

// cli carries the persistent flags shared by every subcommand
type cli struct {
	configPath string
	logLevel   string
}

// env is what a subcommand needs once configuration is loaded
type env struct {
	cfg     *config.Config
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "generator",
		Short:         "Generate and inspect the lunar almanac",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("almanac generator v{{.Version}}\n")

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file (default $ALMANAC_CONFIG or config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(c),
		newPreviewCmd(c),
		newExportCmd(c),
	)
	return root
}

// setup loads and validates configuration and builds the logger. Logs go to
// stderr so stdout stays clean for previews and exports.
func (c *cli) setup(cmd *cobra.Command) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewStructuredLogger("almanac-generator", version, level)
	logger.SetOutput(cmd.ErrOrStderr())

	return &env{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollectorWith("almanac_generator", prometheus.NewRegistry()),
	}, nil
}

// generator builds the classifier from the almanac section
func (e *env) generator() (*almanac.Generator, error) {
	loc, err := e.cfg.Almanac.Location()
	if err != nil {
		return nil, err
	}
	return almanac.NewGenerator(lunar.NewMeeusSource(), almanac.Options{
		Region:       e.cfg.Almanac.Region,
		Location:     loc,
		QuarterGroup: e.cfg.Almanac.QuarterGrouping,
	}), nil
}

func banner(w io.Writer, title string) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func main() {
	ctx, stop := signalContext(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
