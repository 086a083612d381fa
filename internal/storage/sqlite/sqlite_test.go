package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Load returns ErrNotFound for missing key", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Save then Load", func(t *testing.T) {
		if err := store.Save(ctx, "default", []byte(`{"version":1}`)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load(ctx, "default")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got) != `{"version":1}` {
			t.Errorf("Load = %q", got)
		}
	})

	t.Run("Save overwrites", func(t *testing.T) {
		if err := store.Save(ctx, "default", []byte(`{"version":1,"payload":{}}`)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load(ctx, "default")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got) != `{"version":1,"payload":{}}` {
			t.Errorf("Load = %q, want latest save", got)
		}
	})

	t.Run("Keys are independent", func(t *testing.T) {
		if err := store.Save(ctx, "other", []byte(`{}`)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load(ctx, "default")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got) == `{}` {
			t.Error("Saving another key changed default")
		}
	})
}

func TestSQLiteStore_History(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, data := range []string{`"a"`, `"bb"`, `"ccc"`} {
		if err := store.Save(ctx, "default", []byte(data)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	revisions, err := store.History(ctx, "default", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(revisions) != 2 {
		t.Fatalf("Expected 2 revisions, got %d", len(revisions))
	}
	if revisions[0].Size != 5 || !revisions[0].SavedAt.Equal(base.Add(3*time.Minute)) {
		t.Errorf("Newest revision = %+v", revisions[0])
	}

	data, err := store.LoadRevision(ctx, revisions[1].ID)
	if err != nil {
		t.Fatalf("LoadRevision failed: %v", err)
	}
	if string(data) != `"bb"` {
		t.Errorf("LoadRevision = %q, want %q", data, `"bb"`)
	}

	if _, err := store.LoadRevision(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Save(ctx, "default", []byte(`"kept"`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer second.Close()
	got, err := second.Load(ctx, "default")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `"kept"` {
		t.Errorf("Load = %q", got)
	}
}
