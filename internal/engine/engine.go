package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/observability"
	"github.com/IshaanNene/gemquality/internal/parser"
	"github.com/IshaanNene/gemquality/internal/translation"
	"github.com/IshaanNene/gemquality/internal/types"
)

// Fetcher is the interface for all fetcher implementations.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*types.Document, error)
	Close() error
}

// Extractor turns a source document into gems.
type Extractor interface {
	ExtractGems(source string, idx *translation.Index) ([]types.Gem, error)
}

// Pipeline is the interface for the gem processing pipeline.
type Pipeline interface {
	ProcessAll(gems []types.Gem) ([]types.Gem, int, error)
}

// Storage is the interface for all export backends.
type Storage interface {
	Store(category string, gems []types.Gem) error
	Close() error
}

// Engine runs one scrape: translations first, then every configured
// category in order.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	fetcher   Fetcher
	extractor Extractor
	pipeline  Pipeline
	storage   Storage
	metrics   *observability.Metrics
	mu        sync.RWMutex
}

// New creates a new Engine with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.With("component", "engine"),
		metrics: observability.NewMetrics(logger),
	}
}

// SetFetcher sets the document fetcher.
func (e *Engine) SetFetcher(f Fetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetcher = f
}

// SetExtractor sets the gem extractor.
func (e *Engine) SetExtractor(x Extractor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extractor = x
}

// SetPipeline sets the pipeline implementation.
func (e *Engine) SetPipeline(p Pipeline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipeline = p
}

// SetStorage sets the export backend. A nil storage disables export.
func (e *Engine) SetStorage(s Storage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.storage = s
}

// SetMetrics replaces the metrics sink.
func (e *Engine) SetMetrics(m *observability.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Metrics returns the run counters.
func (e *Engine) Metrics() *observability.Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics
}

// LoadTranslations fetches and parses the translation document.
func (e *Engine) LoadTranslations(ctx context.Context) (*translation.Index, error) {
	e.mu.RLock()
	f := e.fetcher
	e.mu.RUnlock()
	if f == nil {
		return nil, errors.New("engine: no fetcher configured")
	}

	doc, err := e.fetch(ctx, f, e.cfg.Sources.Translations)
	if err != nil {
		return nil, err
	}
	idx, err := translation.ParseLanguage(doc.Body, e.cfg.Sources.Language)
	if err != nil {
		return nil, fmt.Errorf("parse translations from %s: %w", doc.URL, err)
	}
	return idx, nil
}

// Run scrapes every configured category and returns the collection in
// category order. A category whose document cannot be fetched is recorded
// with its error and does not stop the run. If the translation document
// cannot be loaded, the run continues with an empty index and every quality
// stays unresolved.
//
// The returned error joins pipeline and export failures; the collection is
// complete even when it is non-nil. Context cancellation stops the run and
// returns the categories processed so far.
func (e *Engine) Run(ctx context.Context) (*types.GemCollection, error) {
	e.mu.RLock()
	f, x, p, s := e.fetcher, e.extractor, e.pipeline, e.storage
	e.mu.RUnlock()

	if f == nil {
		return nil, errors.New("engine: no fetcher configured")
	}
	if x == nil {
		return nil, errors.New("engine: no extractor configured")
	}

	start := time.Now()
	categories := e.cfg.Categories()
	e.logger.Info("run starting", "categories", len(categories), "translations", e.cfg.Sources.Translations)

	idx, err := e.LoadTranslations(ctx)
	if err != nil {
		e.logger.Warn("translations unavailable, qualities will be unresolved", "error", err)
		idx = translation.New(nil)
	} else {
		e.logger.Info("translations loaded", "entries", idx.Len())
	}

	collection := types.NewGemCollection()
	var errs []error

	for _, c := range categories {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := e.runCategory(ctx, c, f, x, p, idx)
		collection.Set(result)
		if err != nil {
			errs = append(errs, err)
		}
		if !result.Fetched() || s == nil {
			continue
		}

		if err := s.Store(c.Name, result.Gems); err != nil {
			e.logger.Error("export failed", "category", c.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		e.metrics.GemsStored.Add(int64(len(result.Gems)))
	}

	if s != nil {
		if err := s.Close(); err != nil {
			e.logger.Error("storage close error", "error", err)
			errs = append(errs, err)
		}
	}

	e.metrics.LogSummary()
	e.logger.Info("run finished",
		"categories", collection.Len(),
		"gems", collection.GemCount(),
		"elapsed", time.Since(start),
	)

	return collection, errors.Join(errs...)
}

// runCategory fetches, extracts and processes one category.
func (e *Engine) runCategory(ctx context.Context, c config.CategoryConfig, f Fetcher, x Extractor, p Pipeline, idx *translation.Index) (types.CategoryResult, error) {
	result := types.CategoryResult{
		Category: types.Category{Name: c.Name, Title: c.Title, URL: c.URL},
	}
	logger := e.logger.With("category", c.Name)

	doc, err := e.fetch(ctx, f, c.URL)
	if err != nil {
		logger.Warn("category could not be fetched", "url", c.URL, "error", err)
		result.Err = err
		return result, nil
	}

	gems, err := x.ExtractGems(doc.Text(), idx)
	if err != nil {
		malformed := parser.MalformedRecords(err)
		e.metrics.MalformedPairs.Add(int64(len(malformed)))
		logger.Warn("malformed quality pairs skipped", "count", len(malformed))
	}
	e.metrics.GemsExtracted.Add(int64(len(gems)))

	if p != nil {
		processed, dropped, err := p.ProcessAll(gems)
		if err != nil {
			logger.Error("pipeline failed, keeping unprocessed gems", "error", err)
			result.Gems = gems
			e.countQualities(gems)
			return result, fmt.Errorf("category %s: %w", c.Name, err)
		}
		e.metrics.GemsDropped.Add(int64(dropped))
		gems = processed
	}

	e.countQualities(gems)
	result.Gems = gems
	logger.Info("category processed", "gems", len(gems), "bytes", len(doc.Body))
	return result, nil
}

func (e *Engine) fetch(ctx context.Context, f Fetcher, rawURL string) (*types.Document, error) {
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		e.metrics.DocumentsFailed.Add(1)
		return nil, err
	}
	e.metrics.DocumentsFetched.Add(1)
	e.metrics.BytesDownloaded.Add(int64(len(doc.Body)))
	return doc, nil
}

func (e *Engine) countQualities(gems []types.Gem) {
	for _, g := range gems {
		for _, q := range g.Qualities {
			if q.Resolved() {
				e.metrics.QualitiesResolved.Add(1)
			} else {
				e.metrics.QualitiesUnresolved.Add(1)
			}
		}
	}
}
