package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/gemquality/internal/engine"
	"github.com/IshaanNene/gemquality/internal/fetcher"
	"github.com/IshaanNene/gemquality/internal/parser"
	"github.com/IshaanNene/gemquality/internal/quality"
	"github.com/IshaanNene/gemquality/internal/translation"
)

var translationsSource string

// resolveCmd creates the "resolve" subcommand.
func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <stat-key> <value-per-quality>",
		Short: "Resolve one quality stat against the translation table",
		Example: `  gemquality resolve base_cast_speed_+% 0.5
  gemquality resolve arc_damage_+% 1 -c gemquality.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}

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

			idx, err := eng.LoadTranslations(contextOf(cmd))
			if err != nil {
				return fmt.Errorf("load translations: %w", err)
			}

			return printJSON(quality.Resolve(args[0], value, idx))
		},
	}
}

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract gems from a local skill data file and print them as JSON",
		Long: `Extract gems from a local skill data file and print them as JSON.

Without --translations every quality stat is printed unresolved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg)

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}

			idx := translation.New(nil)
			if translationsSource != "" {
				f, err := fetcher.New(&cfg.Fetcher, logger)
				if err != nil {
					return err
				}
				defer f.Close()

				doc, err := f.Fetch(contextOf(cmd), sourceURL(translationsSource))
				if err != nil {
					return fmt.Errorf("load translations: %w", err)
				}
				idx, err = translation.ParseLanguage(doc.Body, cfg.Sources.Language)
				if err != nil {
					return fmt.Errorf("parse translations: %w", err)
				}
			}

			extractor := parser.NewGemExtractor(logger)
			if cfg.Parser.GemPattern != "" {
				if extractor, err = parser.NewGemExtractorWithPattern(cfg.Parser.GemPattern, logger); err != nil {
					return err
				}
			}

			gems, err := extractor.ExtractGems(string(source), idx)
			if err != nil {
				logger.Warn("malformed quality pairs skipped", "count", len(parser.MalformedRecords(err)))
			}
			return printJSON(gems)
		},
	}

	cmd.Flags().StringVar(&translationsSource, "translations", "", "translation table as a URL or local path")
	return cmd
}

// sourceURL turns a local path into a file:// URL and leaves URLs untouched.
func sourceURL(s string) string {
	if strings.Contains(s, "://") {
		return s
	}
	if abs, err := filepath.Abs(s); err == nil {
		s = abs
	}
	return "file://" + filepath.ToSlash(s)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
