package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tellerdesk-session-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store := NewFileStore(tmpDir)
	if got := store.Get(); got != "" {
		t.Errorf("fresh store should have no session, got %q", got)
	}

	store.Set("S1")
	if got := store.Get(); got != "S1" {
		t.Errorf("expected S1, got %q", got)
	}

	// A new store over the same directory sees the persisted id.
	reopened := NewFileStore(tmpDir)
	if got := reopened.Get(); got != "S1" {
		t.Errorf("expected persisted S1 after reopen, got %q", got)
	}

	store.Set("")
	if got := store.Get(); got != "" {
		t.Errorf("expected cleared session, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "session_id")); !os.IsNotExist(err) {
		t.Errorf("expected slot file removed after clear")
	}
}

func TestFileStoreFailOpen(t *testing.T) {
	// Point the store at a path that cannot be written. Set must not fail the
	// caller and the in-memory value stays authoritative.
	store := NewFileStore(filepath.Join(string(os.PathSeparator), "dev", "null", "nope"))
	store.Set("S2")
	if got := store.Get(); got != "S2" {
		t.Errorf("in-memory value should survive storage failure, got %q", got)
	}
	store.Set("")
	if got := store.Get(); got != "" {
		t.Errorf("clear should work despite storage failure, got %q", got)
	}
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	if store.Get() != "" {
		t.Fatalf("fresh mem store should be empty")
	}
	store.Set("abc")
	if store.Get() != "abc" {
		t.Fatalf("expected abc, got %q", store.Get())
	}
	store.Set("")
	if store.Get() != "" {
		t.Fatalf("expected cleared store")
	}
}
