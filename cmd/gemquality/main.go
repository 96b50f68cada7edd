package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/engine"
	"github.com/IshaanNene/gemquality/internal/report"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	exportType string
	exportPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gemquality",
		Short: "gemquality builds a Path of Exile gem quality overview",
		Long: `gemquality downloads the skill gem data files and the stat translation table,
works out what each point of gem quality grants, and writes a static HTML report.

Every gem category is fetched and rendered independently; a category whose data
file cannot be downloaded is marked in the report instead of failing the run.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildCmd creates the "build" subcommand.
func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scrape all gem categories and write the HTML report",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "report file path (default from config, index.html)")
	cmd.Flags().StringVar(&exportType, "export", "", "also export gems: json, jsonl, csv, mongodb")
	cmd.Flags().StringVar(&exportPath, "export-path", "", "export file path for json, jsonl and csv")

	return cmd
}

// runBuild executes the build command.
func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	eng, f, err := engine.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	collection, runErr := eng.Run(ctx)
	if collection == nil {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		return runErr
	}

	renderer := report.NewRenderer(&cfg.Report, logger)
	if err := renderer.WriteFile(cfg.Report.OutputPath, collection); err != nil {
		return errors.Join(runErr, err)
	}

	metrics := eng.Metrics()
	if cfg.Metrics.OutputPath != "" {
		if err := metrics.WriteFile(cfg.Metrics.OutputPath); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.Metrics.OutputPath, "error", err)
		}
	}

	stats := metrics.Snapshot()
	var failed []string
	for _, res := range collection.Results() {
		if !res.Fetched() {
			failed = append(failed, res.Category.Name)
		}
	}

	fmt.Printf("\nReport written in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Categories: %d (%d failed)\n", collection.Len(), len(failed))
	fmt.Printf("   Gems:       %d\n", collection.GemCount())
	fmt.Printf("   Qualities:  %v resolved, %v unresolved\n", stats["qualities_resolved"], stats["qualities_unresolved"])
	fmt.Printf("   Output:     %s\n", cfg.Report.OutputPath)
	if len(failed) > 0 {
		fmt.Printf("   Failed:     %s\n", strings.Join(failed, ", "))
	}
	if cfg.Export.Type != "" {
		fmt.Printf("   Export:     %s (%v gems)\n", cfg.Export.Type, stats["gems_stored"])
	}

	return runErr
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gemquality %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Sources:\n")
			fmt.Printf("  Translations:      %s\n", cfg.Sources.Translations)
			fmt.Printf("  Language:          %s\n", cfg.Sources.Language)
			for _, c := range cfg.Categories() {
				fmt.Printf("  %-18s %s\n", c.Name+":", c.URL)
			}
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agent:        %s\n", cfg.Fetcher.UserAgent)
			fmt.Printf("  Proxy:             %s\n", orNone(cfg.Fetcher.ProxyURL))
			fmt.Printf("\nPipeline:\n")
			fmt.Printf("  Require Qualities: %v\n", cfg.Pipeline.RequireQualities)
			fmt.Printf("  Drop Unresolved:   %v\n", cfg.Pipeline.DropUnresolved)
			fmt.Printf("  Exclude:           %d patterns\n", len(cfg.Pipeline.Exclude))
			fmt.Printf("\nReport:\n")
			fmt.Printf("  Output Path:       %s\n", cfg.Report.OutputPath)
			fmt.Printf("  Title:             %s\n", cfg.Report.Title)
			fmt.Printf("  Stylesheet:        %s\n", cfg.Report.Stylesheet)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Type:              %s\n", orNone(cfg.Export.Type))
			fmt.Printf("  Output Path:       %s\n", orNone(cfg.Export.OutputPath))
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Output Path:       %s\n", orNone(cfg.Metrics.OutputPath))
			return nil
		},
	}
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputPath != "" {
		cfg.Report.OutputPath = outputPath
	}
	if exportType != "" {
		cfg.Export.Type = strings.ToLower(exportType)
	}
	if exportPath != "" {
		cfg.Export.OutputPath = exportPath
	}
}
