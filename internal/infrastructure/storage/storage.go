package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/config"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// New builds the repository selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Repository, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryRepository(), nil
	case DriverSQLite:
		path := cfg.DatabasePath
		if path == "" {
			path = ":memory:"
		}
		store, err := NewStorage(ctx, path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
