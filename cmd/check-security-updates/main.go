package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/WatchBeam/clock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/check-security-updates/pkg/advisory"
	"github.com/check-security-updates/pkg/cache"
	"github.com/check-security-updates/pkg/config"
	"github.com/check-security-updates/pkg/evaluator"
	"github.com/check-security-updates/pkg/reporter"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	status := reporter.StatusUnknown

	rootCmd := &cobra.Command{
		Use:     "check-security-updates",
		Short:   "Nagios check for pending OS security updates",
		Long:    `Counts pending security updates by severity, tracks how long each has been outstanding in a local cache, and warns once a patch exceeds its compliance timeframe.`,
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			status = run(cmd, os.Stdout, clock.C)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.Flags().BoolP("debug", "d", false, "enable debug output")
	rootCmd.Flags().BoolP("no-kernel", "k", false, "omit kernel patches (if kernel live patches are enabled)")
	rootCmd.Flags().StringP("cache", "c", config.DefaultCachePath, "local cache file for patch first-seen dates")
	rootCmd.Flags().String("package-manager", "auto", "package manager to query: auto | dnf | yum")
	rootCmd.Flags().String("output", "nagios", "output format: nagios | json")
	rootCmd.Flags().String("config", config.DefaultPath, "path to config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(reporter.StatusUnknown.Code())
	}
	os.Exit(status.Code())
}

func run(cmd *cobra.Command, stdout io.Writer, clk clock.Clock) reporter.Status {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// A missing file at the default location just means defaults; an
		// explicitly requested config that cannot be read is fatal.
		if cmd.Flags().Changed("config") || !errors.Is(err, os.ErrNotExist) {
			return reporter.Failure(stdout, reporter.StatusUnknown, fmt.Sprintf("cannot load config %s: %v", cfgPath, err))
		}
		cfg = config.Default()
	}
	cfg = config.MergeFlags(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return reporter.Failure(stdout, reporter.StatusUnknown, fmt.Sprintf("invalid configuration: %v", err))
	}

	log := newLogger(cfg)

	source, err := advisory.NewUpdateinfoSource(cfg.PackageManager, cfg.CriticalPatterns, log)
	if err != nil {
		return reporter.Failure(stdout, reporter.StatusCritical, fmt.Sprintf("security update listing unavailable: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PkgmgrTimeout())
	defer cancel()
	advisories, err := source.List(ctx)
	if err != nil {
		status := reporter.StatusUnknown
		if errors.Is(err, exec.ErrNotFound) {
			status = reporter.StatusCritical
		}
		return reporter.Failure(stdout, status, fmt.Sprintf("security update listing failed: %v", err))
	}

	today := cache.Day(clk.Now())

	var degraded string
	store, err := cache.Load(cfg.CachePath)
	if err != nil {
		log.Warn().Err(err).Msg("cache unreadable, continuing from an empty cache")
		degraded = "cache unreadable"
	}

	ev := evaluator.New(store, evaluator.Options{
		ExcludeKernel:  cfg.NoKernel,
		KernelPatterns: cfg.KernelPatterns,
	}, log)
	res := ev.Evaluate(advisories, today)

	if err := store.Save(cfg.CachePath); err != nil {
		log.Warn().Err(err).Msg("cache not persisted, next run will re-derive patch ages")
		if degraded != "" {
			degraded += ", cache unwritable"
		} else {
			degraded = "cache unwritable"
		}
	}
	if degraded != "" {
		res.Degraded = true
		res.DegradedReason = degraded
	}

	status, err := reporter.New(cfg.Output).Report(stdout, res)
	if err != nil {
		log.Error().Err(err).Msg("writing status line failed")
		return reporter.StatusUnknown
	}
	return status
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Verbose {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	// stdout carries only the status line; all logging goes to stderr.
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true}).
		Level(level).With().Timestamp().Logger()
}
