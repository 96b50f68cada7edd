package storage

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/types"
)

// Storage is the interface for all export backends.
type Storage interface {
	// Store persists the gems of one category.
	Store(category string, gems []types.Gem) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the backend selected by cfg.Type. It returns nil, nil when
// export is disabled.
func New(cfg *config.ExportConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "json", "jsonl", "csv":
		return NewFileStorage(cfg.Type, cfg.OutputPath, logger)
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported export type: %s", cfg.Type)
	}
}
