// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/azblob"
	"github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// Open returns the store for cfg.DataBackend.
func Open(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		slog.Info("Storage initialized", "backend", cfg.DataBackend)
		return memory.New(), nil
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.DataBackend, "database", cfg.SQLiteDBPath)
		return store, nil
	case config.BackendAzBlob:
		store, err := azblob.New(ctx, cfg.BlobURL, cfg.BlobContainer)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.DataBackend, "container", cfg.BlobContainer)
		return store, nil
	}
	return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}
