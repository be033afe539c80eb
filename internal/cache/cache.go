// Package cache is the State Cache: a per-resource on-disk JSON record
// keyed by a stable hash of the resource's identity, mirrored in memory for
// concurrent-safe reads and writes.
//
// Grounded on the Python predecessor's devexy/k8s/models/resource.py
// (_load_k8s_state/_dump_k8s_state/_set_state/_del_state, and its
// best-effort tolerance of missing/corrupt cache files) and on kcli's
// internal/state/store.go for the Go JSON-persistence idiom.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/sycdan/devexy/internal/appdir"
	"github.com/sycdan/devexy/internal/manifest"
)

// Record is one resource's cached observations. Field names match the JSON
// persisted on disk.
type Record struct {
	LastAppliedHash string         `json:"last_applied_hash,omitempty"`
	Status          map[string]any `json:"status,omitempty"`
	ObservedAt      string         `json:"observed_at,omitempty"`
	ProxyInstalled  bool           `json:"proxy_installed,omitempty"`
	Key             string         `json:"key,omitempty"`
}

// Store is the per-overlay on-disk + in-memory cache. One Store instance is
// shared by every Resource constructed against the same kustomize root.
type Store struct {
	root string // <app_dir>/k8s_cache/<SHA-256(abs_kustomize_root)>

	mu      sync.Mutex
	records map[string]*Record // keyed by key_hash (SHA-1 of the identity key)
}

// Open resolves the cache directory for absKustomizeRoot and creates it if
// necessary. The directory is <app_dir>/k8s_cache/<SHA-256(absKustomizeRoot)>.
func Open(absKustomizeRoot string) (*Store, error) {
	dir, err := appdir.Dir()
	if err != nil {
		return nil, err
	}
	root := filepath.Join(dir, "k8s_cache", manifest.SecureHash(absKustomizeRoot))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, records: map[string]*Record{}}, nil
}

// OpenAt opens a Store rooted directly at dir, bypassing the app-directory
// and SHA-256 derivation Open performs. Used by tests and by callers that
// have already resolved an overlay-specific cache directory.
func OpenAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: dir, records: map[string]*Record{}}, nil
}

func (s *Store) path(keyHash string) string {
	return filepath.Join(s.root, keyHash+".json")
}

// Load returns the cached record for key, best-effort: a missing, empty, or
// corrupt file loads as an empty Record (only Key set) with no error. The in-memory
// mirror is populated so subsequent Load/Save calls for the same key share
// state.
func (s *Store) Load(key string) *Record {
	keyHash := manifest.QuickHash(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[keyHash]; ok {
		return rec
	}

	rec := &Record{Key: key}
	data, err := os.ReadFile(s.path(keyHash))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, rec) // corrupt JSON: fall through with whatever decoded, or zero value
	}
	s.records[keyHash] = rec
	return rec
}

// Save writes rec to disk under key's cache file and updates the in-memory
// mirror. Encode and write failures are returned; callers log them as
// warnings and carry on (a cache I/O failure is never fatal, never
// user-visible).
func (s *Store) Save(key string, rec *Record) error {
	keyHash := manifest.QuickHash(key)
	rec.Key = key

	s.mu.Lock()
	s.records[keyHash] = rec
	s.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(keyHash), data, 0o644)
}

// ClearAll removes every cache file under this store's root and resets the
// in-memory mirror. Mirrors devexy/k8s/utils.py's clear_cache(), used by
// `workon --apply`.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.records = map[string]*Record{}
	return firstErr
}
