package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mmcdole/flatsync/internal/domain"
)

// Kind selects which snapshot family a key belongs to
type Kind int

const (
	KindHomeworks Kind = iota // Singleton, key ignored
	KindProblems              // Keyed by assignment id
)

func (k Kind) String() string {
	switch k {
	case KindHomeworks:
		return "homeworks"
	case KindProblems:
		return "problems"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrInvalidKey is returned for keys that cannot name a snapshot file
var ErrInvalidKey = errors.New("invalid snapshot key")

// fileName maps (kind, key) to the on-disk snapshot name
func fileName(kind Kind, key string) (string, error) {
	switch kind {
	case KindHomeworks:
		return "homeworks.json", nil
	case KindProblems:
		if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		return "problems-" + key + ".json", nil
	default:
		return "", fmt.Errorf("unknown snapshot kind %d", int(kind))
	}
}

// SnapshotStore implements domain.SnapshotStore with one JSON file per snapshot.
// Writes replace the whole snapshot; reads treat missing or corrupt files as a miss.
type SnapshotStore struct {
	dir string
	mu  sync.RWMutex // Protects memory cache

	// Serializes file writes so two writers never race on one snapshot
	writeMu sync.Mutex

	// In-memory cache of raw snapshot bytes (promoted on access)
	cache map[string][]byte
}

// NewSnapshotStore creates the store rooted at dir.
// An empty dir gives a memory-only store.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	return &SnapshotStore{dir: dir, cache: make(map[string][]byte)}, nil
}

// Dir returns the directory snapshots are written to
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// Save serializes v and overwrites the snapshot at (kind, key)
func (s *SnapshotStore) Save(kind Kind, key string, v interface{}) error {
	name, err := fileName(kind, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Memory-only mode skips the disk
	if s.dir != "" {
		if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
			return fmt.Errorf("failed to write %s snapshot: %w", kind, err)
		}
	}

	s.mu.Lock()
	s.cache[name] = data
	s.mu.Unlock()

	return nil
}

// Load decodes the snapshot at (kind, key) into dest.
// Returns false on a missing file or any decode failure.
func (s *SnapshotStore) Load(kind Kind, key string, dest interface{}) bool {
	name, err := fileName(kind, key)
	if err != nil {
		return false
	}

	s.mu.RLock()
	if data, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.dir == "" {
		return false
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}

	s.mu.Lock()
	s.cache[name] = data
	s.mu.Unlock()

	return true
}

// === Homework list ===

// LoadHomeworks returns the cached homework list
func (s *SnapshotStore) LoadHomeworks() ([]domain.Homework, bool) {
	var list []domain.Homework
	ok := s.Load(KindHomeworks, "", &list)
	return list, ok
}

// SaveHomeworks replaces the cached homework list
func (s *SnapshotStore) SaveHomeworks(list []domain.Homework) error {
	return s.Save(KindHomeworks, "", list)
}

// === Problem lists ===

// LoadProblems returns the cached problem list of an assignment, in page order
func (s *SnapshotStore) LoadProblems(assignmentID string) ([]domain.ProblemItem, bool) {
	var items []domain.ProblemItem
	ok := s.Load(KindProblems, assignmentID, &items)
	return items, ok
}

// SaveProblems replaces the cached problem list of an assignment
func (s *SnapshotStore) SaveProblems(assignmentID string, items []domain.ProblemItem) error {
	return s.Save(KindProblems, assignmentID, items)
}

// AssignmentIDs lists the assignments that have a problem snapshot on disk
func (s *SnapshotStore) AssignmentIDs() []string {
	seen := make(map[string]bool)

	s.mu.RLock()
	for name := range s.cache {
		if id, ok := problemKey(name); ok {
			seen[id] = true
		}
	}
	s.mu.RUnlock()

	if s.dir != "" {
		matches, _ := filepath.Glob(filepath.Join(s.dir, "problems-*.json"))
		for _, path := range matches {
			if id, ok := problemKey(filepath.Base(path)); ok {
				seen[id] = true
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

func problemKey(name string) (string, bool) {
	if !strings.HasPrefix(name, "problems-") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, "problems-"), ".json")
	return id, id != ""
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
