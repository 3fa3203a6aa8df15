// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/history"
	"github.com/starford/vaultdigest/internal/models"
	"github.com/starford/vaultdigest/internal/storage"
)

// TestDB creates a temporary run-history database that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vaultdigest-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a file-system store.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// MemStore is an in-memory storage.Provider that records every call.
type MemStore struct {
	mu      sync.Mutex
	docs    []models.Document
	files   map[string]string
	dirs    map[string]struct{}
	calls   []string
	readErr map[string]error

	// ListErr, WriteErr and MakeDirErr force the matching operation to fail.
	ListErr    error
	WriteErr   error
	MakeDirErr error
}

var _ storage.Provider = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		files:   make(map[string]string),
		dirs:    make(map[string]struct{}),
		readErr: make(map[string]error),
	}
}

// Add appends a document in enumeration order and registers its folders.
func (m *MemStore) Add(p, content string, modTime, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, models.NewDocument(p, modTime, createdAt))
	m.files[p] = content
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = struct{}{}
	}
}

// FailRead makes Read(p) return err.
func (m *MemStore) FailRead(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr[p] = err
}

// Calls returns the recorded operations as "op:path" strings.
func (m *MemStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many recorded calls used op.
func (m *MemStore) CallCount(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, op+":") {
			n++
		}
	}
	return n
}

// File returns the stored content at p.
func (m *MemStore) File(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.files[p]
	return s, ok
}

// HasDir reports whether the directory p exists.
func (m *MemStore) HasDir(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dirs[p]
	return ok
}

func (m *MemStore) record(op, p string) {
	m.calls = append(m.calls, op+":"+p)
}

// List implements storage.Provider.
func (m *MemStore) List() ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list", "")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return slices.Clone(m.docs), nil
}

// Read implements storage.Provider.
func (m *MemStore) Read(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("read", p)
	if err := m.readErr[p]; err != nil {
		return nil, err
	}
	s, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("memstore: read %s: %w", p, os.ErrNotExist)
	}
	return []byte(s), nil
}

// Exists implements storage.Provider.
func (m *MemStore) Exists(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("exists", p)
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	_, ok := m.dirs[p]
	return ok, nil
}

// Write implements storage.Provider. The parent directory must exist.
func (m *MemStore) Write(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("write", p)
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if dir := path.Dir(p); dir != "." {
		if _, ok := m.dirs[dir]; !ok {
			return fmt.Errorf("memstore: write %s: parent missing: %w", p, os.ErrNotExist)
		}
	}
	m.files[p] = string(content)
	return nil
}

// MakeDir implements storage.Provider.
func (m *MemStore) MakeDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("mkdir", p)
	if m.MakeDirErr != nil {
		return m.MakeDirErr
	}
	if _, ok := m.dirs[p]; ok {
		return fmt.Errorf("memstore: mkdir %s: %w", p, apperr.ErrAlreadyExists)
	}
	for dir := p; dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = struct{}{}
	}
	return nil
}
