package cache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openStore(t)

	payload := []byte(`{"corrections":[]}`)
	if err := store.Set("spell_check:key", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get("spell_check:key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit for a fresh entry")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestStoreMissingKey(t *testing.T) {
	store := openStore(t)

	_, ok, err := store.Get("never written")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a miss for an unknown key")
	}
}

func TestStoreExpiredEntryIsAMiss(t *testing.T) {
	store := openStore(t)

	if err := store.Set("stale", []byte("old"), -time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, ok, err := store.Get("stale")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expired entries must read as a miss")
	}
}

func TestStoreOverwrite(t *testing.T) {
	store := openStore(t)

	if err := store.Set("key", []byte("first"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("key", []byte("second"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get("key")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != "second" {
		t.Errorf("got %q, want the rewritten value", got)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()
}
