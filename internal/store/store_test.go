package store_test

import (
	"fmt"
	"sync"
	"testing"

	"research-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertOrGetAssignsDenseIndices(t *testing.T) {
	s := store.NewReferenceStore()

	first := s.InsertOrGet("https://example.com/a", "A", "alpha")
	second := s.InsertOrGet("https://example.com/b", "B", "bravo")
	third := s.InsertOrGet("https://example.com/c", "C", "charlie")

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 3, third)

	all := s.All()
	require.Len(t, all, 3)
	for i, c := range all {
		assert.Equal(t, i+1, c.Index)
	}
}

func TestInsertOrGetReturnsExistingIndexForDuplicates(t *testing.T) {
	s := store.NewReferenceStore()

	idx := s.InsertOrGet("https://example.com/a", "Original title", "original content")
	dup := s.InsertOrGet("https://example.com/a", "Replacement title", "replacement content")

	assert.Equal(t, idx, dup)
	assert.Equal(t, 1, s.Len())

	// First write wins: the later title and content are discarded.
	c, ok := s.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, "Original title", c.Title)
	assert.Equal(t, "original content", c.Content)
}

func TestInsertOrGetIgnoresBlankURLs(t *testing.T) {
	s := store.NewReferenceStore()

	assert.Equal(t, 0, s.InsertOrGet("", "t", "c"))
	assert.Equal(t, 0, s.InsertOrGet("   ", "t", "c"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.InsertOrGet("https://example.com/a", "t", "c"))
}

func TestInsertOrGetTreatsURLVariantsAsOneSource(t *testing.T) {
	s := store.NewReferenceStore()

	a := s.InsertOrGet("https://Example.com/page/", "t", "c")
	b := s.InsertOrGet("https://example.com/page?utm_source=rss", "t", "c")
	c := s.InsertOrGet("https://example.com:443/page#top", "t", "c")

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, 1, s.Len())
}

// Many goroutines inserting a mix of shared and distinct URLs must produce
// exactly one index per distinct source, with indices dense from 1..N.
func TestInsertOrGetConcurrent(t *testing.T) {
	const (
		workers    = 16
		perWorker  = 50
		sharedURLs = 10
	)

	s := store.NewReferenceStore()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Half the inserts collide across workers, half are unique.
				if i%2 == 0 {
					s.InsertOrGet(fmt.Sprintf("https://shared.example.com/%d", (i/2)%sharedURLs), "shared", "")
				} else {
					s.InsertOrGet(fmt.Sprintf("https://worker%d.example.com/%d", worker, i), "unique", "")
				}
			}
		}(w)
	}
	wg.Wait()

	uniquePerWorker := perWorker / 2
	wantDistinct := sharedURLs + workers*uniquePerWorker
	require.Equal(t, wantDistinct, s.Len())

	all := s.All()
	require.Len(t, all, wantDistinct)

	seenURLs := make(map[string]bool, len(all))
	for i, c := range all {
		assert.Equal(t, i+1, c.Index, "indices must be dense and ordered")
		assert.False(t, seenURLs[c.URL], "url %s registered twice", c.URL)
		seenURLs[c.URL] = true
	}
}

// A duplicate insert racing the first insert of the same URL must agree on
// the index.
func TestInsertOrGetConcurrentDuplicatesAgree(t *testing.T) {
	const workers = 32

	s := store.NewReferenceStore()

	indices := make([]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			indices[slot] = s.InsertOrGet("https://example.com/contested", "t", "c")
		}(w)
	}
	wg.Wait()

	require.Equal(t, 1, s.Len())
	for _, idx := range indices {
		assert.Equal(t, 1, idx)
	}
}
