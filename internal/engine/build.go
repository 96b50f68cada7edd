package engine

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/fetcher"
	"github.com/IshaanNene/gemquality/internal/parser"
	"github.com/IshaanNene/gemquality/internal/pipeline"
	"github.com/IshaanNene/gemquality/internal/storage"
)

// Build creates an Engine wired from cfg: the scheme-dispatching fetcher,
// the regex gem extractor, the configured middleware chain and the export
// backend. The caller must Close the returned fetcher.
func Build(cfg *config.Config, logger *slog.Logger) (*Engine, fetcher.Fetcher, error) {
	f, err := fetcher.New(&cfg.Fetcher, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	extractor := parser.NewGemExtractor(logger)
	if cfg.Parser.GemPattern != "" {
		extractor, err = parser.NewGemExtractorWithPattern(cfg.Parser.GemPattern, logger)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
	}

	pipe, err := NewPipeline(&cfg.Pipeline, logger)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	e := New(cfg, logger)
	e.SetFetcher(f)
	e.SetExtractor(extractor)
	e.SetPipeline(pipe)

	store, err := storage.New(&cfg.Export, logger)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create storage: %w", err)
	}
	if store != nil {
		e.SetStorage(store)
	}

	return e, f, nil
}

// NewPipeline builds the middleware chain selected by cfg.
func NewPipeline(cfg *config.PipelineConfig, logger *slog.Logger) (*pipeline.Pipeline, error) {
	p := pipeline.New(logger)
	p.Use(&pipeline.TrimMiddleware{})
	if len(cfg.Exclude) > 0 {
		mw, err := pipeline.NewExcludeMiddleware(cfg.Exclude)
		if err != nil {
			return nil, err
		}
		p.Use(mw)
	}
	if cfg.DropUnresolved {
		p.Use(&pipeline.UnresolvedFilterMiddleware{})
	}
	if cfg.RequireQualities {
		p.Use(&pipeline.RequireQualitiesMiddleware{})
	}
	return p, nil
}
