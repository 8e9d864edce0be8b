package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/qwerprog/scribe-api/internal/domain"
	"github.com/qwerprog/scribe-api/internal/generation"
	"github.com/qwerprog/scribe-api/internal/media"
	"github.com/qwerprog/scribe-api/internal/metrics"
)

// errorMessageLimit caps the error text surfaced in the user-facing
// status message. The full error stays in the job's error field.
const errorMessageLimit = 100

// Common errors
var (
	ErrNilJobStore  = errors.New("job store cannot be nil")
	ErrNilPublisher = errors.New("publisher cannot be nil")
	ErrNilResolver  = errors.New("metadata resolver cannot be nil")
	ErrNilAcquirer  = errors.New("audio acquirer cannot be nil")
	ErrNilEngine    = errors.New("text engine cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyTaskJob = errors.New("job ID cannot be empty")
)

// JobStore is the view of the job registry the pipeline needs: mutate
// the owned record, remove it, and snapshot everything for persistence.
type JobStore interface {
	Update(id string, fn func(*domain.Job)) (domain.Job, error)
	Remove(id string)
	Snapshot() map[string]domain.Job
}

// Publisher delivers job state snapshots to live subscribers.
type Publisher interface {
	Publish(jobID string, snapshot domain.Job)
	CloseAll(jobID string)
}

// SnapshotSaver persists the full job set to durable storage.
type SnapshotSaver interface {
	Save(jobs map[string]domain.Job) error
}

// Releaser frees the source URL claim when a job reaches a terminal
// state, allowing a fresh submission for the same input.
type Releaser interface {
	Release(sourceURL string)
}

// TranscriptionTask implements the Task interface for running the full
// pipeline for one job: resolve metadata, acquire audio, transcribe,
// optimize, translate when needed, and summarize. The task is the sole
// writer of its job for the duration of the run.
type TranscriptionTask struct {
	jobID          string
	sourceURL      string
	targetLanguage string

	// jobCtx is cancelled when the user cancels the job. It is distinct
	// from the worker context passed to Execute, which covers pool
	// shutdown.
	jobCtx context.Context

	store       JobStore
	publisher   Publisher
	saver       SnapshotSaver
	releaser    Releaser
	resolver    media.MetadataResolver
	acquirer    media.AudioAcquirer
	transcriber media.Transcriber
	engine      generation.TextEngine

	workDir string
	logger  *slog.Logger

	// audioPath remembers the scratch audio file for terminal cleanup
	// even after the job record has been removed.
	audioPath string
}

// TranscriptionTaskDeps bundles the collaborators a pipeline run needs.
type TranscriptionTaskDeps struct {
	Store       JobStore
	Publisher   Publisher
	Saver       SnapshotSaver
	Releaser    Releaser
	Resolver    media.MetadataResolver
	Acquirer    media.AudioAcquirer
	Transcriber media.Transcriber
	Engine      generation.TextEngine
	WorkDir     string
	Logger      *slog.Logger
}

// validate checks the required collaborators are present.
func (d TranscriptionTaskDeps) validate() error {
	if d.Store == nil {
		return ErrNilJobStore
	}
	if d.Publisher == nil {
		return ErrNilPublisher
	}
	if d.Resolver == nil {
		return ErrNilResolver
	}
	if d.Acquirer == nil || d.Transcriber == nil {
		return ErrNilAcquirer
	}
	if d.Engine == nil {
		return ErrNilEngine
	}
	if d.Logger == nil {
		return ErrNilLogger
	}
	return nil
}

// NewTranscriptionTask creates a pipeline task for an already-registered
// job. jobCtx must be the context whose cancel function is held by the
// job record.
func NewTranscriptionTask(
	jobCtx context.Context,
	job *domain.Job,
	deps TranscriptionTaskDeps,
) (*TranscriptionTask, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if job == nil || job.ID == "" {
		return nil, ErrEmptyTaskJob
	}

	return &TranscriptionTask{
		jobID:          job.ID,
		sourceURL:      job.SourceURL,
		targetLanguage: job.TargetLanguage,
		jobCtx:         jobCtx,
		store:          deps.Store,
		publisher:      deps.Publisher,
		saver:          deps.Saver,
		releaser:       deps.Releaser,
		resolver:       deps.Resolver,
		acquirer:       deps.Acquirer,
		transcriber:    deps.Transcriber,
		engine:         deps.Engine,
		workDir:        deps.WorkDir,
		logger:         deps.Logger.With("task_type", TaskTypeTranscription, "job_id", job.ID),
	}, nil
}

// ID returns the task's unique identifier
func (t *TranscriptionTask) ID() string {
	return t.jobID
}

// Type returns the task type identifier
func (t *TranscriptionTask) Type() string {
	return TaskTypeTranscription
}

// Execute runs the pipeline. The worker context covers pool shutdown;
// the job context covers user cancellation. Either one ending aborts
// the in-flight stage.
func (t *TranscriptionTask) Execute(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.jobCtx, cancel)
	defer stop()

	err := t.run(runCtx)
	t.finish(err)
	return err
}

// run drives the pipeline stages; it mutates the job through the store
// on every checkpoint so subscribers see each transition.
func (t *TranscriptionTask) run(ctx context.Context) error {
	t.checkpoint(10, "Fetching video information...")
	stageStart := time.Now()
	info, err := t.resolver.Resolve(ctx, t.sourceURL)
	if err != nil {
		return fmt.Errorf("failed to fetch video information: %w", err)
	}
	metrics.ObserveStage("resolve", time.Since(stageStart))
	t.logger.Info("resolved video metadata", "title", info.Title, "duration_seconds", info.Duration)
	t.update(func(j *domain.Job) {
		j.Title = info.Title
	})

	t.checkpoint(15, "Downloading and converting audio...")
	stageStart = time.Now()
	audioPath, err := t.acquirer.Acquire(ctx, t.sourceURL, t.workDir)
	if err != nil {
		return fmt.Errorf("failed to acquire audio: %w", err)
	}
	metrics.ObserveStage("acquire", time.Since(stageStart))
	t.audioPath = audioPath
	t.update(func(j *domain.Job) {
		j.AudioFilePath = audioPath
	})

	t.checkpoint(35, "Transcribing audio...")
	stageStart = time.Now()
	transcription, err := t.transcriber.Transcribe(ctx, audioPath, "")
	if err != nil {
		return fmt.Errorf("failed to transcribe audio: %w", err)
	}
	metrics.ObserveStage("transcribe", time.Since(stageStart))
	t.logger.Info("transcription complete", "detected_language", transcription.DetectedLanguage)

	rawPath, err := writeArtifact(t.workDir,
		artifactName("raw", info.Title, t.jobID),
		transcription.Text+"\n\nsource: "+t.sourceURL+"\n")
	if err != nil {
		return err
	}
	t.update(func(j *domain.Job) {
		j.DetectedLanguage = transcription.DetectedLanguage
		j.RawScriptPath = rawPath
	})

	t.checkpoint(55, "Optimizing transcript...")
	stageStart = time.Now()
	optimized, err := t.engine.OptimizeTranscript(ctx, transcription.Text)
	if err != nil {
		return fmt.Errorf("failed to optimize transcript: %w", err)
	}
	metrics.ObserveStage("optimize", time.Since(stageStart))

	scriptPath, err := writeArtifact(t.workDir,
		artifactName("transcript", info.Title, t.jobID),
		fmt.Sprintf("# %s\n\n%s\n\nsource: %s\n", info.Title, optimized, t.sourceURL))
	if err != nil {
		return err
	}
	t.update(func(j *domain.Job) {
		j.ScriptPath = scriptPath
	})

	if generation.ShouldTranslate(transcription.DetectedLanguage, t.targetLanguage) {
		t.checkpoint(70, "Translating transcript...")
		stageStart = time.Now()
		translated, err := t.engine.Translate(ctx, optimized, t.targetLanguage, transcription.DetectedLanguage)
		if err != nil {
			return fmt.Errorf("failed to translate transcript: %w", err)
		}
		metrics.ObserveStage("translate", time.Since(stageStart))

		translationPath, err := writeArtifact(t.workDir,
			artifactName("translation", info.Title, t.jobID),
			fmt.Sprintf("# %s\n\n%s\n\nsource: %s\n", info.Title, translated, t.sourceURL))
		if err != nil {
			return err
		}
		t.update(func(j *domain.Job) {
			j.TranslationPath = translationPath
		})
	} else {
		t.logger.Info("translation not required",
			"detected_language", transcription.DetectedLanguage,
			"target_language", t.targetLanguage)
	}

	t.checkpoint(80, "Generating summary...")
	stageStart = time.Now()
	summary, err := t.engine.Summarize(ctx, optimized, t.targetLanguage, info.Title)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}
	metrics.ObserveStage("summarize", time.Since(stageStart))

	summaryPath, err := writeArtifact(t.workDir,
		artifactName("summary", info.Title, t.jobID),
		summary+"\n\nsource: "+t.sourceURL+"\n")
	if err != nil {
		return err
	}

	snap, updateErr := t.store.Update(t.jobID, func(j *domain.Job) {
		j.SummaryPath = summaryPath
		j.Complete("Processing completed")
	})
	if updateErr != nil {
		// Job was removed mid-run (user deletion); nothing left to report.
		return nil
	}
	if snap.Status != domain.JobStatusCompleted {
		// A concurrent cancellation won the terminal transition.
		return nil
	}
	t.publisher.Publish(t.jobID, snap)
	metrics.ObserveJob(string(domain.JobStatusCompleted))
	t.logger.Info("job completed")
	return nil
}

// finish performs the terminal bookkeeping shared by success, failure,
// and cancellation: mark failure when needed, remove the scratch audio
// file, release the dedup claim, persist, and close the event stream.
func (t *TranscriptionTask) finish(runErr error) {
	if runErr != nil {
		errMsg := runErr.Error()
		message := "Processing failed: " + truncate(errMsg, errorMessageLimit)
		if errors.Is(runErr, context.Canceled) {
			if t.jobCtx.Err() != nil {
				errMsg = "Task cancelled by user."
				message = "Task cancelled"
			} else {
				errMsg = "Application shutting down during processing."
				message = "Processing interrupted"
			}
		}

		snap, err := t.store.Update(t.jobID, func(j *domain.Job) {
			j.Fail(errMsg, message)
		})
		if err == nil {
			t.publisher.Publish(t.jobID, snap)
		}
		metrics.ObserveJob(string(domain.JobStatusFailed))
	}

	if snap, err := t.store.Update(t.jobID, func(j *domain.Job) {}); err == nil {
		if snap.Status == domain.JobStatusProcessing {
			// The run returned without a terminal transition; do not
			// leave the job stuck in processing.
			snap, _ = t.store.Update(t.jobID, func(j *domain.Job) {
				j.Fail("Pipeline ended without result", "Processing failed")
			})
			t.publisher.Publish(t.jobID, snap)
			metrics.ObserveJob(string(domain.JobStatusFailed))
		}
	}

	t.cleanupAudio()

	if t.releaser != nil {
		t.releaser.Release(t.sourceURL)
	}
	t.persist()
	t.publisher.CloseAll(t.jobID)
}

// checkpoint advances progress, notifies subscribers, and persists. A
// record that has already reached a terminal state is treated like a
// missing one: nothing is published after the terminal snapshot.
func (t *TranscriptionTask) checkpoint(progress int, message string) {
	snap, err := t.store.Update(t.jobID, func(j *domain.Job) {
		j.UpdateProgress(progress, message)
	})
	if err != nil {
		t.logger.Warn("progress update for missing job", "progress", progress)
		return
	}
	if snap.Terminal() {
		t.logger.Warn("progress update for terminal job", "progress", progress, "status", snap.Status)
		return
	}
	t.logger.Debug("job progress", "progress", progress, "message", message)
	t.publisher.Publish(t.jobID, snap)
	t.persist()
}

// update applies a mutation without a progress change or persistence.
func (t *TranscriptionTask) update(fn func(*domain.Job)) {
	if _, err := t.store.Update(t.jobID, fn); err != nil {
		t.logger.Warn("update for missing job")
	}
}

// persist saves the full registry snapshot, logging but not failing on
// error. A missed save only costs restart fidelity.
func (t *TranscriptionTask) persist() {
	if t.saver == nil {
		return
	}
	if err := t.saver.Save(t.store.Snapshot()); err != nil {
		t.logger.Error("failed to persist job snapshot", "error", err)
	}
}

// cleanupAudio removes the intermediate audio file, if any.
func (t *TranscriptionTask) cleanupAudio() {
	_, _ = t.store.Update(t.jobID, func(j *domain.Job) {
		j.AudioFilePath = ""
	})
	if t.audioPath == "" {
		return
	}
	if err := os.Remove(t.audioPath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("failed to remove scratch audio file", "path", t.audioPath, "error", err)
		return
	}
	t.logger.Debug("removed scratch audio file", "path", t.audioPath)
}

// truncate shortens s to at most limit bytes, appending an ellipsis
// when anything was cut. The cut never splits a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
