package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/IshaanNene/gemquality/internal/types"
)

// FileFetcher reads file:// URLs from the local filesystem.
type FileFetcher struct {
	maxBodySize int64
	logger      *slog.Logger
}

// NewFileFetcher creates a fetcher for local documents. A maxBodySize of
// zero disables the size limit.
func NewFileFetcher(maxBodySize int64, logger *slog.Logger) *FileFetcher {
	return &FileFetcher{
		maxBodySize: maxBodySize,
		logger:      logger.With("component", "file_fetcher"),
	}
}

// Fetch reads the file named by rawURL.
func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	if u.Scheme != "file" {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("%w: %q", types.ErrUnsupportedScheme, u.Scheme)}
	}

	start := time.Now()
	file, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	defer file.Close()

	body, err := readBody(file, f.maxBodySize)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	if len(body) == 0 {
		return nil, &types.FetchError{URL: rawURL, Err: types.ErrEmptyResponse}
	}

	f.logger.Debug("file read", "path", u.Path, "size", len(body))

	return &types.Document{
		URL:           rawURL,
		StatusCode:    200,
		Body:          body,
		FetchDuration: time.Since(start),
		FetchedAt:     time.Now(),
	}, nil
}

// Close releases resources.
func (f *FileFetcher) Close() error { return nil }

// Type returns the fetcher type identifier.
func (f *FileFetcher) Type() string { return "file" }
