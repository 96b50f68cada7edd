package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/types"
)

// Fetcher is the interface for all document fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the document at rawURL. A non-success result is
	// reported as a *types.FetchError.
	Fetch(ctx context.Context, rawURL string) (*types.Document, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// MultiFetcher dispatches requests to a fetcher by URL scheme.
type MultiFetcher struct {
	byScheme map[string]Fetcher
	logger   *slog.Logger
}

// NewMultiFetcher creates an empty dispatcher.
func NewMultiFetcher(logger *slog.Logger) *MultiFetcher {
	return &MultiFetcher{
		byScheme: make(map[string]Fetcher),
		logger:   logger.With("component", "multi_fetcher"),
	}
}

// Register routes the given schemes to f.
func (m *MultiFetcher) Register(f Fetcher, schemes ...string) {
	for _, s := range schemes {
		m.byScheme[s] = f
		m.logger.Debug("fetcher registered", "scheme", s, "type", f.Type())
	}
}

// Fetch implements Fetcher.
func (m *MultiFetcher) Fetch(ctx context.Context, rawURL string) (*types.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	f, ok := m.byScheme[u.Scheme]
	if !ok {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("%w: %q", types.ErrUnsupportedScheme, u.Scheme)}
	}
	return f.Fetch(ctx, rawURL)
}

// Close closes every registered fetcher once.
func (m *MultiFetcher) Close() error {
	closed := make(map[Fetcher]bool)
	var firstErr error
	for _, f := range m.byScheme {
		if closed[f] {
			continue
		}
		closed[f] = true
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Type returns the fetcher type identifier.
func (m *MultiFetcher) Type() string { return "multi" }

// New builds the default dispatcher: HTTP(S) over the network and file://
// from disk.
func New(cfg *config.FetcherConfig, logger *slog.Logger) (*MultiFetcher, error) {
	httpFetcher, err := NewHTTPFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	m := NewMultiFetcher(logger)
	m.Register(httpFetcher, "http", "https")
	m.Register(NewFileFetcher(cfg.MaxBodySize, logger), "file")
	return m, nil
}

// readBody reads r to the end. A body longer than limit fails with
// types.ErrBodyTooLarge; a limit of zero disables the check.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", types.ErrBodyTooLarge, limit)
	}
	return body, nil
}
