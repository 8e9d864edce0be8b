package store

import (
	"sync"

	"github.com/qwerprog/scribe-api/internal/domain"
)

// DedupIndex maps a source URL to the job currently processing it,
// preventing duplicate concurrent work for the same input. The
// check-then-insert in Claim is a single atomic step: under concurrent
// calls with the same URL, exactly one caller observes isNew == true.
type DedupIndex struct {
	mu     sync.Mutex
	active map[string]string // source URL -> job ID
}

// NewDedupIndex creates an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{
		active: make(map[string]string),
	}
}

// Claim reserves the source URL. If no job is active for it, a fresh job
// ID is minted, the mapping is recorded, and isNew is true. Otherwise
// the existing job ID is returned with isNew false and no new ID is
// created.
func (d *DedupIndex) Claim(sourceURL string) (jobID string, isNew bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.active[sourceURL]; ok {
		return existing, false
	}

	jobID = domain.NewJobID()
	d.active[sourceURL] = jobID
	return jobID, true
}

// Release removes the claim for the source URL so a new request for the
// same input can start a fresh job. Releasing an unclaimed URL is a
// no-op.
func (d *DedupIndex) Release(sourceURL string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.active, sourceURL)
}

// Active returns the job ID currently claiming the source URL, if any.
func (d *DedupIndex) Active(sourceURL string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.active[sourceURL]
	return id, ok
}
