package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/snapshot"
)

// SnapshotStore persists ledger snapshots in a Store under a single key.
// Stored data goes through the same validation as an import when loaded.
type SnapshotStore struct {
	store    Store
	key      string
	restorer *snapshot.Restorer
}

// NewSnapshotStore returns a SnapshotStore writing to key.
func NewSnapshotStore(store Store, key string, restorer *snapshot.Restorer) *SnapshotStore {
	if restorer == nil {
		restorer = snapshot.NewRestorer()
	}
	return &SnapshotStore{store: store, key: key, restorer: restorer}
}

// Load returns the stored snapshot, or nil when nothing has been saved yet.
func (s *SnapshotStore) Load(ctx context.Context) (*snapshot.Result, error) {
	data, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %q: %w", s.key, err)
	}
	res, err := s.restorer.Restore(data)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %q: %w", s.key, err)
	}
	return res, nil
}

// Save writes snap in the export envelope.
func (s *SnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := snapshot.Export(snap)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying store.
func (s *SnapshotStore) Close() error {
	return s.store.Close()
}
