package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/config"
)

// ChunkBackendQdrant keeps chunk vectors in Qdrant.
const ChunkBackendQdrant = "qdrant"

// Open builds the Storage selected by cfg.Storage.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var base Storage
	var err error
	switch cfg.Storage.Driver {
	case config.DriverSQLite, "":
		base, err = NewSQLiteStorage(cfg.Storage.DatabasePath)
	case config.DriverPostgres:
		base, err = NewPostgresStorage(ctx, cfg.Storage.DatabaseURL, cfg.Embedding.Dimensions)
	case config.DriverMemory:
		base, err = NewMemoryStorage(cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.ChunkBackend {
	case "":
		logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))
		return base, nil
	case ChunkBackendQdrant:
		q := cfg.Storage.Qdrant
		chunks, err := NewQdrantChunkStore(ctx, QdrantOptions{
			Host:       q.Host,
			Port:       q.Port,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			_ = base.Close()
			return nil, err
		}
		logger.Info("storage ready",
			zap.String("driver", cfg.Storage.Driver),
			zap.String("chunks", ChunkBackendQdrant),
			zap.String("collection", q.Collection))
		return Compose(base, chunks), nil
	default:
		_ = base.Close()
		return nil, fmt.Errorf("unknown chunk backend %q", cfg.Storage.ChunkBackend)
	}
}
