package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/flatsync/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketAnswers = []byte("answers")
	bucketReports = []byte("reports")
)

const lastReportKey = "last"

// AnswerStore implements domain.AnswerRepository and domain.ReportStore using BoltDB.
type AnswerStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// Serializes read-modify-write updates of answer lists
	writeMu sync.Mutex

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewAnswerStore opens (or creates) the bolt database at path.
// An empty path gives a memory-only store.
func NewAnswerStore(path string) (*AnswerStore, error) {
	if path == "" {
		return &AnswerStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAnswers, bucketReports} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &AnswerStore{db: db, cache: make(map[string][]byte)}, nil
}

// ScopedDir returns a per-server subdirectory of baseDir so caches from
// different API hosts never mix.
func ScopedDir(baseDir, serverURL string) string {
	if serverURL == "" {
		return baseDir
	}
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return filepath.Join(baseDir, hex.EncodeToString(hash[:6]))
}

func (s *AnswerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *AnswerStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *AnswerStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

// === Answers ===

// Answers returns the saved answers of an assignment ordered by problem index
func (s *AnswerStore) Answers(assignmentID string) ([]domain.SavedAnswer, bool) {
	var answers []domain.SavedAnswer
	ok := s.get(bucketAnswers, assignmentID, &answers)
	return answers, ok
}

// SaveAnswer records an answer, replacing any previous answer for the same problem index
func (s *AnswerStore) SaveAnswer(assignmentID string, answer domain.SavedAnswer) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	answers, _ := s.Answers(assignmentID)
	kept := make([]domain.SavedAnswer, 0, len(answers)+1)
	for _, a := range answers {
		if a.ProblemIndex != answer.ProblemIndex {
			kept = append(kept, a)
		}
	}
	kept = append(kept, answer)
	sort.Slice(kept, func(i, j int) bool { return kept[i].ProblemIndex < kept[j].ProblemIndex })

	return s.set(bucketAnswers, assignmentID, kept)
}

// MarkSubmitted flags the answers at the given problem indexes as submitted
func (s *AnswerStore) MarkSubmitted(assignmentID string, problemIndexes []int) error {
	if len(problemIndexes) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	answers, ok := s.Answers(assignmentID)
	if !ok {
		return nil
	}

	marked := make(map[int]bool, len(problemIndexes))
	for _, idx := range problemIndexes {
		marked[idx] = true
	}
	for i := range answers {
		if marked[answers[i].ProblemIndex] {
			answers[i].Submitted = true
		}
	}

	return s.set(bucketAnswers, assignmentID, answers)
}

// === Sync reports ===

// SaveReport overwrites the last sync report
func (s *AnswerStore) SaveReport(report domain.SyncReport) error {
	return s.set(bucketReports, lastReportKey, report)
}

// LastReport returns the most recently saved sync report
func (s *AnswerStore) LastReport() (domain.SyncReport, bool) {
	var report domain.SyncReport
	ok := s.get(bucketReports, lastReportKey, &report)
	return report, ok
}
