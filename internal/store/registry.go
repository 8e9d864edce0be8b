package store

import (
	"sync"

	"github.com/qwerprog/scribe-api/internal/domain"
)

// Registry is the single source of truth for job state. It is safe for
// concurrent use by multiple pipeline workers and the read path.
//
// A live record is mutated only through Update, by the single pipeline
// run that owns the job; Get and Snapshot return copies, so readers
// never observe a record mid-mutation.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*domain.Job),
	}
}

// Put inserts or replaces the record for the given job ID.
func (r *Registry) Put(id string, job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = job
}

// Get returns a snapshot of the job with the given ID, or ErrJobNotFound.
func (r *Registry) Get(id string) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	return job.Snapshot(), nil
}

// Update applies fn to the live record under the registry lock and
// returns the resulting snapshot. The pipeline run that owns the job is
// the only caller for that job while it is processing, so fn never races
// another writer on the same record.
func (r *Registry) Update(id string, fn func(*domain.Job)) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	fn(job)
	return job.Snapshot(), nil
}

// Remove deletes the record for the given job ID. Removing an unknown ID
// is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Snapshot returns a copy of every record, keyed by job ID, suitable for
// persistence or listing. Runtime-only fields are already cleared by the
// per-record snapshot.
func (r *Registry) Snapshot() map[string]domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Job, len(r.jobs))
	for id, job := range r.jobs {
		out[id] = job.Snapshot()
	}
	return out
}

// Len returns the number of records currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
