// Package session owns the server-issued conversation identifier. Exactly one
// session is active per client instance; the identifier is assigned by the
// backend on first contact and attached to every later request until cleared.
package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is the single slot holding the active session id. An empty string
// means "no session". Implementations must be fail-open: storage trouble
// degrades to session-less operation, it never blocks a conversation.
type Store interface {
	// Get returns the current session id, or "" if none is known.
	Get() string
	// Set persists a new id, or clears the slot when id is "".
	Set(id string)
}

const slotFileName = "session_id"

// FileStore persists the session id as a plain string in a single file under
// the client's state directory. The in-memory value is authoritative; disk
// writes are best-effort and read/write errors are swallowed.
type FileStore struct {
	mu   sync.Mutex
	path string
	id   string
}

// NewFileStore creates a store backed by <dir>/session_id and loads any
// previously persisted id. A missing or unreadable slot is the same as no
// session.
func NewFileStore(dir string) *FileStore {
	s := &FileStore{path: filepath.Join(dir, slotFileName)}
	if data, err := os.ReadFile(s.path); err == nil {
		s.id = strings.TrimSpace(string(data))
	}
	return s
}

// Get returns the current session id.
func (s *FileStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Set records the id in memory and persists it best-effort. Setting "" clears
// the slot and removes the file.
func (s *FileStore) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	if id == "" {
		_ = os.Remove(s.path)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return
	}
	_ = os.WriteFile(s.path, []byte(id), 0600)
}

// MemStore is an in-memory Store for tests and for running without a state
// directory.
type MemStore struct {
	mu sync.Mutex
	id string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Get returns the current session id.
func (s *MemStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Set records the id.
func (s *MemStore) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}
