package pipeline

import (
	"fmt"
	"regexp"

	"github.com/IshaanNene/gemquality/internal/types"
)

// ExcludeMiddleware drops gems whose id or name matches any of its patterns.
type ExcludeMiddleware struct {
	patterns []*regexp.Regexp
}

// NewExcludeMiddleware compiles the exclusion patterns.
func NewExcludeMiddleware(patterns []string) (*ExcludeMiddleware, error) {
	m := &ExcludeMiddleware{}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

func (m *ExcludeMiddleware) Name() string { return "exclude" }

func (m *ExcludeMiddleware) Process(gem *types.Gem) (*types.Gem, error) {
	for _, re := range m.patterns {
		if re.MatchString(gem.ID) || re.MatchString(gem.Name) {
			return nil, nil
		}
	}
	return gem, nil
}

// UnresolvedFilterMiddleware removes quality stats without a translation.
type UnresolvedFilterMiddleware struct{}

func (m *UnresolvedFilterMiddleware) Name() string { return "unresolved_filter" }

func (m *UnresolvedFilterMiddleware) Process(gem *types.Gem) (*types.Gem, error) {
	kept := gem.Qualities[:0:0]
	for _, q := range gem.Qualities {
		if q.Resolved() {
			kept = append(kept, q)
		}
	}
	gem.Qualities = kept
	return gem, nil
}
