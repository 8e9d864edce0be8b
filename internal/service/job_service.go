package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/qwerprog/scribe-api/internal/domain"
	"github.com/qwerprog/scribe-api/internal/metrics"
	"github.com/qwerprog/scribe-api/internal/store"
	"github.com/qwerprog/scribe-api/internal/task"
)

// Notifier delivers job state snapshots to live subscribers.
type Notifier interface {
	Publish(jobID string, snapshot domain.Job)
	CloseAll(jobID string)
}

// SnapshotSaver persists the full job set to durable storage.
type SnapshotSaver interface {
	Save(jobs map[string]domain.Job) error
}

// TaskFactory creates pipeline tasks for accepted jobs.
type TaskFactory interface {
	CreateTask(jobCtx context.Context, job *domain.Job) (task.Task, error)
}

// SubmitResult reports the outcome of a job submission: the job that
// now covers the source URL and whether the caller joined an existing
// run instead of starting a new one.
type SubmitResult struct {
	JobID  string
	Joined bool
}

// JobService provides job orchestration operations
type JobService interface {
	// CreateOrJoin accepts a source URL for processing. If a job is
	// already running for the URL the caller joins it; otherwise a new
	// job is registered and enqueued.
	CreateOrJoin(ctx context.Context, sourceURL, targetLanguage string) (SubmitResult, error)

	// Get retrieves a snapshot of the job by its ID
	Get(jobID string) (domain.Job, error)

	// List returns snapshots of all known jobs, newest first
	List() []domain.Job

	// CancelAndDelete interrupts the job if it is running and removes
	// it entirely
	CancelAndDelete(jobID string) error
}

// jobServiceImpl implements the JobService interface
type jobServiceImpl struct {
	registry *store.Registry
	dedup    *store.DedupIndex
	saver    SnapshotSaver
	notifier Notifier
	queue    task.TaskQueueWriter
	factory  TaskFactory
	logger   *slog.Logger
}

// NewJobService creates a new JobService.
// It returns an error if any of the required dependencies are nil.
func NewJobService(
	registry *store.Registry,
	dedup *store.DedupIndex,
	saver SnapshotSaver,
	notifier Notifier,
	queue task.TaskQueueWriter,
	factory TaskFactory,
	logger *slog.Logger,
) (JobService, error) {
	if registry == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "registry cannot be nil"}
	}
	if dedup == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "dedup index cannot be nil"}
	}
	if saver == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "snapshot saver cannot be nil"}
	}
	if notifier == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "notifier cannot be nil"}
	}
	if queue == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "task queue cannot be nil"}
	}
	if factory == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "task factory cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		registry: registry,
		dedup:    dedup,
		saver:    saver,
		notifier: notifier,
		queue:    queue,
		factory:  factory,
		logger:   logger.With("component", "job_service"),
	}, nil
}

// CreateOrJoin accepts a submission. The dedup claim is the atomic
// step: under concurrent submissions of the same URL exactly one caller
// registers a new job, every other caller joins it.
func (s *jobServiceImpl) CreateOrJoin(
	ctx context.Context,
	sourceURL, targetLanguage string,
) (SubmitResult, error) {
	jobID, isNew := s.dedup.Claim(sourceURL)
	if !isNew {
		s.logger.Info("submission joined existing job",
			"job_id", jobID,
			"url", sourceURL)
		metrics.ObserveJoin()
		return SubmitResult{JobID: jobID, Joined: true}, nil
	}

	job, err := domain.NewJob(jobID, sourceURL, targetLanguage)
	if err != nil {
		s.dedup.Release(sourceURL)
		return SubmitResult{}, NewJobServiceError("submit_job", "invalid job parameters", err)
	}

	// The job context outlives this request; its cancel function lives
	// on the job record and is invoked by CancelAndDelete.
	jobCtx, cancel := context.WithCancel(context.Background())
	job.Cancel = cancel

	t, err := s.factory.CreateTask(jobCtx, job)
	if err != nil {
		cancel()
		s.dedup.Release(sourceURL)
		return SubmitResult{}, NewJobServiceError("submit_job", "failed to create pipeline task", err)
	}

	s.registry.Put(job.ID, job)

	if err := s.queue.Enqueue(t); err != nil {
		cancel()
		s.registry.Remove(job.ID)
		s.dedup.Release(sourceURL)
		if errors.Is(err, task.ErrQueueFull) {
			return SubmitResult{}, ErrServiceBusy
		}
		return SubmitResult{}, NewJobServiceError("submit_job", "failed to enqueue pipeline task", err)
	}

	snapshot := job.Snapshot()
	s.notifier.Publish(job.ID, snapshot)
	s.persist()

	s.logger.Info("job accepted",
		"job_id", job.ID,
		"url", sourceURL,
		"target_language", targetLanguage)
	return SubmitResult{JobID: job.ID, Joined: false}, nil
}

// Get retrieves a snapshot of the job by its ID.
func (s *jobServiceImpl) Get(jobID string) (domain.Job, error) {
	job, err := s.registry.Get(jobID)
	if err != nil {
		return domain.Job{}, NewJobServiceError("get_job", "failed to look up job", err)
	}
	return job, nil
}

// List returns snapshots of all known jobs, newest first.
func (s *jobServiceImpl) List() []domain.Job {
	snapshot := s.registry.Snapshot()
	jobs := make([]domain.Job, 0, len(snapshot))
	for _, job := range snapshot {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// CancelAndDelete interrupts the job if it is still running, then
// removes the record, frees the URL claim, and closes the event stream.
func (s *jobServiceImpl) CancelAndDelete(jobID string) error {
	var cancel context.CancelFunc
	var sourceURL string
	var wasRunning bool

	snap, err := s.registry.Update(jobID, func(j *domain.Job) {
		cancel = j.Cancel
		sourceURL = j.SourceURL
		if !j.Terminal() {
			wasRunning = true
			j.Fail("Task cancelled by user.", "Task cancelled")
		}
	})
	if err != nil {
		return NewJobServiceError("cancel_job", "failed to look up job", err)
	}

	if cancel != nil {
		cancel()
	}
	if wasRunning {
		s.notifier.Publish(jobID, snap)
	}

	s.registry.Remove(jobID)
	s.dedup.Release(sourceURL)
	s.notifier.CloseAll(jobID)
	s.persist()

	s.logger.Info("job cancelled and removed", "job_id", jobID, "was_running", wasRunning)
	return nil
}

// persist saves the full registry snapshot, logging but not failing on
// error.
func (s *jobServiceImpl) persist() {
	if err := s.saver.Save(s.registry.Snapshot()); err != nil {
		s.logger.Error("failed to persist job snapshot", "error", err)
	}
}
