package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupClaimReleaseJoin(t *testing.T) {
	idx := NewDedupIndex()

	id1, isNew := idx.Claim("https://example.com/a")
	assert.True(t, isNew)
	assert.NotEmpty(t, id1)

	// A second claim for the same URL joins the first.
	id2, isNew := idx.Claim("https://example.com/a")
	assert.False(t, isNew)
	assert.Equal(t, id1, id2)

	// A different URL gets its own job.
	id3, isNew := idx.Claim("https://example.com/b")
	assert.True(t, isNew)
	assert.NotEqual(t, id1, id3)

	idx.Release("https://example.com/a")
	id4, isNew := idx.Claim("https://example.com/a")
	assert.True(t, isNew)
	assert.NotEqual(t, id1, id4)
}

func TestDedupReleaseIdempotent(t *testing.T) {
	idx := NewDedupIndex()

	idx.Release("https://example.com/never-claimed")

	_, isNew := idx.Claim("https://example.com/a")
	assert.True(t, isNew)
	idx.Release("https://example.com/a")
	idx.Release("https://example.com/a")
	_, ok := idx.Active("https://example.com/a")
	assert.False(t, ok)
}

func TestDedupConcurrentClaimsSingleWinner(t *testing.T) {
	idx := NewDedupIndex()
	const goroutines = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	ids := make(map[string]struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, isNew := idx.Claim("https://example.com/contested")
			mu.Lock()
			defer mu.Unlock()
			if isNew {
				winners++
			}
			ids[id] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one claim should mint the job")
	assert.Len(t, ids, 1, "every caller should observe the same job ID")
}
