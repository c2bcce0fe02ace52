// Package store implements the shared reference store that accumulates
// citable sources across concurrent interviews.
package store

import (
	"sync"

	"research-backend/internal/domain"
)

// ReferenceStore registers every source cited during a run and assigns each
// distinct URL a stable 1-based index. Indices are dense: after N distinct
// inserts they are exactly 1..N. Safe for concurrent use.
type ReferenceStore struct {
	mu        sync.Mutex
	byURL     map[string]int
	citations []domain.Citation
}

// NewReferenceStore creates an empty store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{byURL: make(map[string]int)}
}

// InsertOrGet records a source and returns its index. The URL is normalized
// before lookup, so spelling variants of one address share an index. The
// first insert of a URL wins: later inserts return the existing index and
// leave the stored title and content untouched. A URL that normalizes to
// nothing is not registered and yields index 0.
func (s *ReferenceStore) InsertOrGet(url, title, content string) int {
	key := NormalizeURL(url)
	if key == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byURL[key]; ok {
		return idx
	}

	idx := len(s.citations) + 1
	s.byURL[key] = idx
	s.citations = append(s.citations, domain.Citation{
		Index:   idx,
		URL:     key,
		Title:   title,
		Content: content,
	})
	return idx
}

// Get returns the citation registered under url, if any.
func (s *ReferenceStore) Get(url string) (domain.Citation, bool) {
	key := NormalizeURL(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byURL[key]
	if !ok {
		return domain.Citation{}, false
	}
	return s.citations[idx-1], true
}

// All returns the citations ordered by index. The slice is a copy; callers
// may keep it across further inserts.
func (s *ReferenceStore) All() []domain.Citation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Citation, len(s.citations))
	copy(out, s.citations)
	return out
}

// Len returns the number of distinct sources registered so far.
func (s *ReferenceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.citations)
}
