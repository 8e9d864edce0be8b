package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a transcription job.
type JobStatus string

// Possible job status values. Processing is the only non-terminal state;
// no transitions leave Completed or Failed.
const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Common validation errors for Job
var (
	ErrEmptyJobID        = errors.New("job ID cannot be empty")
	ErrEmptySourceURL    = errors.New("job source URL cannot be empty")
	ErrInvalidJobStatus  = errors.New("invalid job status")
	ErrInvalidTargetLang = errors.New("job target language cannot be empty")
)

// Job represents one full run of the transcription pipeline for a single
// source URL, together with its observable state. A Job is mutated by
// exactly one pipeline run for the duration of its processing lifetime;
// all other readers receive copies via Snapshot.
type Job struct {
	ID             string    `json:"taskId"`
	SourceURL      string    `json:"url"`
	TargetLanguage string    `json:"summaryLanguage"`
	Status         JobStatus `json:"status"`
	Progress       int       `json:"progress"`
	Message        string    `json:"message"`
	Error          string    `json:"error,omitempty"`

	// Derived metadata, set once by the pipeline.
	Title            string `json:"videoTitle,omitempty"`
	DetectedLanguage string `json:"detectedLanguage,omitempty"`

	// Result artifacts, populated progressively as stages complete.
	// A path is never overwritten or cleared by a later stage of the
	// same run.
	RawScriptPath   string `json:"rawScriptPath,omitempty"`
	ScriptPath      string `json:"scriptPath,omitempty"`
	TranslationPath string `json:"translationPath,omitempty"`
	SummaryPath     string `json:"summaryPath,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Runtime-only fields, never persisted. The cancel func interrupts
	// the in-flight pipeline run; AudioFilePath is the intermediate
	// scratch audio file removed on terminal cleanup.
	Cancel        context.CancelFunc `json:"-"`
	AudioFilePath string             `json:"-"`
}

// NewJob creates a new Job in processing state with progress zero.
// Returns an error if validation fails.
func NewJob(id, sourceURL, targetLanguage string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:             id,
		SourceURL:      sourceURL,
		TargetLanguage: targetLanguage,
		Status:         JobStatusProcessing,
		Progress:       0,
		Message:        "Task created, waiting to start...",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// NewJobID generates a fresh opaque job identifier.
func NewJobID() string {
	return uuid.New().String()
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == "" {
		return ErrEmptyJobID
	}

	if j.SourceURL == "" {
		return ErrEmptySourceURL
	}

	if j.TargetLanguage == "" {
		return ErrInvalidTargetLang
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// UpdateProgress advances the job's progress and message while keeping
// the job in processing state. Progress is monotonically non-decreasing
// for the lifetime of a run and clamped to [0,100]; a lower value than
// the current one is ignored. Once the job is terminal the update is a
// no-op: no transitions leave Completed or Failed.
func (j *Job) UpdateProgress(progress int, message string) {
	if j.Terminal() {
		return
	}
	if progress >= j.Progress {
		j.Progress = min(progress, 100)
	}
	j.Message = message
	j.Status = JobStatusProcessing
	j.Error = ""
	j.UpdatedAt = time.Now().UTC()
}

// Complete marks the job as completed with full progress. A no-op when
// the job is already terminal.
func (j *Job) Complete(message string) {
	if j.Terminal() {
		return
	}
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Message = message
	j.Error = ""
	j.UpdatedAt = time.Now().UTC()
}

// Fail marks the job as failed. Progress is left at its last checkpoint
// and already-written artifacts are preserved. A no-op when the job is
// already terminal.
func (j *Job) Fail(errMsg, message string) {
	if j.Terminal() {
		return
	}
	j.Status = JobStatusFailed
	if message == "" {
		message = "Processing failed"
	}
	j.Message = message
	j.Error = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// Snapshot returns a copy of the job with runtime-only fields cleared.
// Snapshots are what readers and subscribers observe; they never alias
// the live record.
func (j *Job) Snapshot() Job {
	copied := *j
	copied.Cancel = nil
	copied.AudioFilePath = ""
	return copied
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
