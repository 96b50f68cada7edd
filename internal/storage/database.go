package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/gemquality/internal/types"
)

// MongoStorage writes one document per gem to a MongoDB collection. Gems are
// upserted on (category, gem_id) so repeated runs replace earlier exports.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

// gemDocument builds the stored document for a gem.
func gemDocument(category string, gem types.Gem, exportedAt time.Time) bson.M {
	qualities := make(bson.A, len(gem.Qualities))
	for i, q := range gem.Qualities {
		handles := q.IndexHandles
		if handles == nil {
			handles = []string{}
		}
		qualities[i] = bson.M{
			"key":               q.Key,
			"value_per_quality": q.ValuePerQuality,
			"translation":       q.Translation,
			"index_handles":     handles,
		}
	}
	return bson.M{
		"category":    category,
		"gem_id":      gem.ID,
		"name":        gem.Name,
		"qualities":   qualities,
		"exported_at": exportedAt,
	}
}

// upsertModels builds one replace-or-insert write per gem.
func upsertModels(category string, gems []types.Gem, exportedAt time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(gems))
	for _, gem := range gems {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"category": category, "gem_id": gem.ID}).
			SetReplacement(gemDocument(category, gem, exportedAt)).
			SetUpsert(true))
	}
	return models
}

func (s *MongoStorage) Store(category string, gems []types.Gem) error {
	if len(gems) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	models := upsertModels(category, gems, time.Now().UTC())
	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("mongodb bulk write: %w", err)}
	}

	s.count += len(gems)
	s.logger.Debug("gems stored in mongodb", "category", category, "count", len(gems), "total", s.count)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_gems", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes gems to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Store(category string, gems []types.Gem) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(category, gems); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
