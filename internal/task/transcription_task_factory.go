package task

import (
	"context"

	"github.com/qwerprog/scribe-api/internal/domain"
)

// TranscriptionTaskFactory creates TranscriptionTask instances bound to
// a fixed set of pipeline collaborators. The service layer uses it to
// build one task per accepted job without holding the media and LLM
// dependencies itself.
type TranscriptionTaskFactory struct {
	deps TranscriptionTaskDeps
}

// NewTranscriptionTaskFactory validates the shared dependencies once so
// per-job task creation cannot fail on wiring.
func NewTranscriptionTaskFactory(deps TranscriptionTaskDeps) (*TranscriptionTaskFactory, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &TranscriptionTaskFactory{deps: deps}, nil
}

// CreateTask builds the pipeline task for an already-registered job.
// jobCtx must be the context whose cancel function the job record holds.
func (f *TranscriptionTaskFactory) CreateTask(jobCtx context.Context, job *domain.Job) (Task, error) {
	return NewTranscriptionTask(jobCtx, job, f.deps)
}
