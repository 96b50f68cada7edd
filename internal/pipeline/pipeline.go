package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/gemquality/internal/types"
)

// Middleware processes a gem and returns the (possibly modified) gem.
// Return nil to drop the gem from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a gem. Return nil to drop the gem.
	Process(gem *types.Gem) (*types.Gem, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the gem through all middleware in order.
func (p *Pipeline) Process(gem *types.Gem) (*types.Gem, error) {
	current := gem

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				GemID: current.ID,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("gem dropped", "stage", mw.Name(), "gem", gem.ID)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every gem through the pipeline, keeping source order. It
// returns the surviving gems and how many were dropped, and stops at the
// first middleware error.
func (p *Pipeline) ProcessAll(gems []types.Gem) ([]types.Gem, int, error) {
	out := make([]types.Gem, 0, len(gems))
	dropped := 0

	for i := range gems {
		result, err := p.Process(&gems[i])
		if err != nil {
			return out, dropped, err
		}
		if result == nil {
			dropped++
			continue
		}
		out = append(out, *result)
	}

	return out, dropped, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// TrimMiddleware trims whitespace from gem ids and names.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(gem *types.Gem) (*types.Gem, error) {
	gem.ID = strings.TrimSpace(gem.ID)
	gem.Name = strings.TrimSpace(gem.Name)
	return gem, nil
}

// RequireQualitiesMiddleware drops gems without any quality stat.
type RequireQualitiesMiddleware struct{}

func (m *RequireQualitiesMiddleware) Name() string { return "require_qualities" }

func (m *RequireQualitiesMiddleware) Process(gem *types.Gem) (*types.Gem, error) {
	if len(gem.Qualities) == 0 {
		return nil, nil
	}
	return gem, nil
}
