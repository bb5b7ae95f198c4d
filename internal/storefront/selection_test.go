package storefront

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SelectionStore {
	t.Helper()
	store, err := OpenSelectionStore(filepath.Join(t.TempDir(), "selections.db"))
	if err != nil {
		t.Fatalf("open selection store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSelectionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if got := store.Get("sid-1", 100); got != 0 {
		t.Fatalf("missing selection = %d, want 0", got)
	}

	if err := store.Set("sid-1", 100, 7001); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.Get("sid-1", 100); got != 7001 {
		t.Fatalf("selection = %d, want 7001", got)
	}

	// Overwrites replace the previous pick.
	if err := store.Set("sid-1", 100, 7002); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := store.Get("sid-1", 100); got != 7002 {
		t.Fatalf("selection after overwrite = %d, want 7002", got)
	}
}

func TestSelectionIsolation(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set("sid-1", 100, 7001); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("sid-2", 100, 7002); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("sid-1", 200, 7003); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := store.Get("sid-1", 100); got != 7001 {
		t.Fatalf("sid-1/100 = %d, want 7001", got)
	}
	if got := store.Get("sid-2", 100); got != 7002 {
		t.Fatalf("sid-2/100 = %d, want 7002", got)
	}
	if got := store.Get("sid-1", 200); got != 7003 {
		t.Fatalf("sid-1/200 = %d, want 7003", got)
	}
	if got := store.Get("sid-2", 200); got != 0 {
		t.Fatalf("sid-2/200 = %d, want 0", got)
	}
}

func TestSelectionPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selections.db")

	store, err := OpenSelectionStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set("sid-1", 100, 7001); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = OpenSelectionStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if got := store.Get("sid-1", 100); got != 7001 {
		t.Fatalf("selection after reopen = %d, want 7001", got)
	}
}
