package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/IshaanNene/gemquality/internal/types"
)

func createFile(outputPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// --- JSON Storage ---

// JSONStorage writes a single JSON object mapping category name to its gems.
// Gems are buffered until Close.
type JSONStorage struct {
	path       string
	categories map[string][]types.Gem
	count      int
	mu         sync.Mutex
	logger     *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &JSONStorage{
		path:       outputPath,
		categories: make(map[string][]types.Gem),
		logger:     logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(category string, gems []types.Gem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category] = append(s.categories[category], gems...)
	s.count += len(gems)
	s.logger.Debug("gems buffered", "category", category, "count", len(gems), "total", s.count)
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := createFile(s.path)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.categories); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "categories", len(s.categories), "gems", s.count)
	return nil
}

// --- JSONL Storage ---

// jsonlRecord is one line of JSONL output.
type jsonlRecord struct {
	Category string `json:"category"`
	types.Gem
}

// JSONLStorage writes one gem per line (streaming writes).
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, err
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(category string, gems []types.Gem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, gem := range gems {
		if err := s.enc.Encode(jsonlRecord{Category: category, Gem: gem}); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "gems", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

var csvHeader = []string{"category", "gem_id", "gem_name", "key", "value_per_quality", "translation", "index_handles"}

// CSVStorage writes one row per quality stat. A gem without qualities gets a
// single row with empty stat columns.
type CSVStorage struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage and writes the header row.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write CSV header: %w", err)
	}

	return &CSVStorage{
		path:   outputPath,
		file:   f,
		writer: w,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(category string, gems []types.Gem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, gem := range gems {
		if len(gem.Qualities) == 0 {
			if err := s.writer.Write([]string{category, gem.ID, gem.Name, "", "", "", ""}); err != nil {
				return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV row: %w", err)}
			}
			s.count++
			continue
		}
		for _, q := range gem.Qualities {
			row := []string{
				category,
				gem.ID,
				gem.Name,
				q.Key,
				strconv.FormatFloat(q.ValuePerQuality, 'f', -1, 64),
				q.Translation,
				strings.Join(q.IndexHandles, ";"),
			}
			if err := s.writer.Write(row); err != nil {
				return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV row: %w", err)}
			}
			s.count++
		}
	}

	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "rows", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputPath string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(outputPath, logger)
	case "jsonl":
		return NewJSONLStorage(outputPath, logger)
	case "csv":
		return NewCSVStorage(outputPath, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
