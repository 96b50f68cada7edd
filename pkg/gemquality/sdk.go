// Package gemquality provides a public SDK for embedding the gem quality
// scraper as a library.
//
// Example usage:
//
//	scraper, err := gemquality.New(
//	    gemquality.WithReport("public/index.html"),
//	    gemquality.WithExport("jsonl", "public/gems.jsonl"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scraper.Close()
//
//	collection, err := scraper.Build(context.Background())
package gemquality

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/engine"
	"github.com/IshaanNene/gemquality/internal/fetcher"
	"github.com/IshaanNene/gemquality/internal/report"
	"github.com/IshaanNene/gemquality/internal/types"
)

// Scraper is the high-level API for producing a gem quality report.
type Scraper struct {
	cfg      *config.Config
	engine   *engine.Engine
	fetcher  fetcher.Fetcher
	renderer *report.Renderer
	logger   *slog.Logger
}

// Category names a gem category and the document it is scraped from.
type Category = config.CategoryConfig

// Collection is the result of a run, one entry per category.
type Collection = types.GemCollection

// Option configures a Scraper.
type Option func(*options)

type options struct {
	cfg    *config.Config
	logger *slog.Logger
}

// WithConfig replaces the default configuration. Later options still apply.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithCategories replaces the default category list.
func WithCategories(categories ...Category) Option {
	return func(o *options) { o.cfg.Sources.Categories = categories }
}

// WithTranslations sets the translation table location and language.
func WithTranslations(url, language string) Option {
	return func(o *options) {
		o.cfg.Sources.Translations = url
		if language != "" {
			o.cfg.Sources.Language = language
		}
	}
}

// WithReport sets the HTML report output path.
func WithReport(path string) Option {
	return func(o *options) { o.cfg.Report.OutputPath = path }
}

// WithExport enables a machine-readable export: json, jsonl or csv.
func WithExport(format, path string) Option {
	return func(o *options) {
		o.cfg.Export.Type = format
		o.cfg.Export.OutputPath = path
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.Fetcher.RequestTimeout = d }
}

// WithLogger sets the logger. The default logs info level text to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(o *options) { o.cfg.Logging.Level = "debug" }
}

// New creates a Scraper with the given options.
func New(opts ...Option) (*Scraper, error) {
	o := &options{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}

	if err := config.Validate(o.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := o.logger
	if logger == nil {
		level := slog.LevelInfo
		if o.cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	eng, f, err := engine.Build(o.cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:      o.cfg,
		engine:   eng,
		fetcher:  f,
		renderer: report.NewRenderer(&o.cfg.Report, logger),
		logger:   logger,
	}, nil
}

// Run scrapes every category without writing the report.
func (s *Scraper) Run(ctx context.Context) (*Collection, error) {
	return s.engine.Run(ctx)
}

// Build scrapes every category and writes the HTML report to the configured
// path. Export errors are returned after the report is written.
func (s *Scraper) Build(ctx context.Context) (*Collection, error) {
	collection, runErr := s.engine.Run(ctx)
	if collection == nil || errors.Is(runErr, context.Canceled) {
		return collection, runErr
	}
	if err := s.renderer.WriteFile(s.cfg.Report.OutputPath, collection); err != nil {
		return collection, errors.Join(runErr, err)
	}
	return collection, runErr
}

// Render writes the HTML report for collection to w.
func (s *Scraper) Render(w io.Writer, collection *Collection) error {
	return s.renderer.Render(w, collection)
}

// Stats returns run counters.
func (s *Scraper) Stats() map[string]int64 {
	return s.engine.Metrics().Snapshot()
}

// Close releases network resources.
func (s *Scraper) Close() error {
	return s.fetcher.Close()
}
