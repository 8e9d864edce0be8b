package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerprog/scribe-api/internal/domain"
)

func newTestJob(t *testing.T, url string) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(domain.NewJobID(), url, "en")
	require.NoError(t, err)
	return job
}

func TestRegistryPutGetRemove(t *testing.T) {
	reg := NewRegistry()
	job := newTestJob(t, "https://example.com/a")

	reg.Put(job.ID, job)

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.JobStatusProcessing, got.Status)

	reg.Remove(job.ID)
	_, err = reg.Get(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	// Removing an unknown ID is a no-op.
	reg.Remove("does-not-exist")
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	job := newTestJob(t, "https://example.com/a")
	reg.Put(job.ID, job)

	snap, err := reg.Get(job.ID)
	require.NoError(t, err)
	snap.Progress = 77

	again, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Progress)
}

func TestRegistryUpdate(t *testing.T) {
	reg := NewRegistry()
	job := newTestJob(t, "https://example.com/a")
	reg.Put(job.ID, job)

	snap, err := reg.Update(job.ID, func(j *domain.Job) {
		j.UpdateProgress(35, "transcribing")
	})
	require.NoError(t, err)
	assert.Equal(t, 35, snap.Progress)

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, got.Progress)

	_, err = reg.Update("missing", func(j *domain.Job) {})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	job := newTestJob(t, "https://example.com/a")
	reg.Put(job.ID, job)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_, _ = reg.Update(job.ID, func(j *domain.Job) {
				j.UpdateProgress(n%100, "progress")
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = reg.Get(job.ID)
			_ = reg.Snapshot()
		}()
	}
	wg.Wait()

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, got.Progress, 100)
}
