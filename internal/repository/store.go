package repository

import (
	"context"
	"fmt"

	"almanac-platform/internal/config"
	"almanac-platform/migrations"
	"almanac-platform/pkg/database"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

// Store is the repository selected by configuration
type Store struct {
	Repo AlmanacRepository

	// File is set for the file backend, DB for the sql backend
	File *FileRepository
	DB   *database.Database
}

// OpenStore opens the configured backend. A missing artifact leaves the file
// backend empty. migrate applies the embedded schema to the sql backend.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		repo := NewFileRepository(cfg.Storage.DataPath, logger)
		if err := repo.Load(ctx); err != nil {
			if !IsNotExist(err) {
				return nil, fmt.Errorf("failed to load almanac artifact: %w", err)
			}
			logger.Warn(ctx, "[REPO_EMPTY] Almanac artifact not found, starting empty", logging.Fields{
				"path": cfg.Storage.DataPath,
			})
		}
		return &Store{Repo: repo, File: repo}, nil

	case config.BackendSQL:
		db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.Migrate(ctx, migrations.Up); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Store{Repo: NewAlmanacRepository(db, logger, metricsCollector), DB: db}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	_, total, err := s.Repo.ListDays(ctx, DayFilter{Limit: 1})
	return total, err
}

// Close releases the database connection, if any
func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
