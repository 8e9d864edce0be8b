package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/qwerprog/scribe-api/internal/api/shared"
	"github.com/qwerprog/scribe-api/internal/domain"
	"github.com/qwerprog/scribe-api/internal/metrics"
	"github.com/qwerprog/scribe-api/internal/notify"
	"github.com/qwerprog/scribe-api/internal/service"
)

// EventStream is the subscription side of the notification hub.
type EventStream interface {
	Subscribe(jobID string) (<-chan notify.Event, func())
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobService service.JobService
	stream     EventStream
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobService service.JobService, stream EventStream, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		stream:     stream,
		logger:     logger.With("component", "job_handler"),
	}
}

// Submit handles POST /api/process requests
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.SummaryLanguage == "" {
		req.SummaryLanguage = defaultSummaryLanguage
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	res, err := h.jobService.CreateOrJoin(r.Context(), req.URL, req.SummaryLanguage)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	message := "Task created, processing started"
	if res.Joined {
		message = "This URL is already being processed, joined existing task"
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, ProcessResponse{
		TaskID:  res.JobID,
		Joined:  res.Joined,
		Message: message,
	})
}

// GetStatus handles GET /api/tasks/{taskID} requests
func (h *JobHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	job, err := h.jobService.Get(taskID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

// List handles GET /api/tasks requests
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.jobService.List())
}

// Delete handles DELETE /api/tasks/{taskID} requests
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if err := h.jobService.CancelAndDelete(taskID); err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /api/tasks/{taskID}/stream requests. It delivers
// the current snapshot immediately, then every state transition and
// periodic heartbeat as server-sent events, closing after the terminal
// snapshot.
func (h *JobHandler) Stream(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	// Subscribe before fetching the initial snapshot so no transition
	// between the two is lost. A job that went terminal (or was deleted)
	// before the subscription shows up in the snapshot, which ends the
	// stream below; its hub channel was closed before we subscribed and
	// will never be completed for us.
	events, unsubscribe := h.stream.Subscribe(taskID)
	defer unsubscribe()

	job, err := h.jobService.Get(taskID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	metrics.IncSubscribers()
	defer metrics.DecSubscribers()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.logger.Info("event stream opened", "job_id", taskID)

	if !writeSSEUpdate(w, job) {
		return
	}
	flusher.Flush()
	if job.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("event stream client disconnected", "job_id", taskID)
			return

		case ev, open := <-events:
			if !open {
				// Hub closed the stream after the terminal snapshot.
				return
			}
			switch ev.Type {
			case notify.EventHeartbeat:
				if _, err := fmt.Fprint(w, "event: heartbeat\ndata: ping\n\n"); err != nil {
					return
				}
			case notify.EventTaskUpdate:
				if !writeSSEUpdate(w, ev.Job) {
					return
				}
			}
			flusher.Flush()

			if ev.Type == notify.EventTaskUpdate && ev.Job.Terminal() {
				h.logger.Debug("event stream finished", "job_id", taskID, "status", ev.Job.Status)
				return
			}
		}
	}
}

// writeSSEUpdate writes one task_update event frame; false means the
// connection is gone.
func writeSSEUpdate(w http.ResponseWriter, job domain.Job) bool {
	data, err := json.Marshal(job)
	if err != nil {
		slog.Error("failed to marshal job snapshot for SSE", "error", err, "job_id", job.ID)
		return false
	}
	_, err = fmt.Fprintf(w, "event: task_update\ndata: %s\n\n", data)
	return err == nil
}

// DownloadFile handles GET /api/tasks/{taskID}/files/{kind} requests,
// serving one of the markdown artifacts produced by the pipeline.
func (h *JobHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	kind := chi.URLParam(r, "kind")

	job, err := h.jobService.Get(taskID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	var path string
	switch kind {
	case "raw":
		path = job.RawScriptPath
	case "script":
		path = job.ScriptPath
	case "translation":
		path = job.TranslationPath
	case "summary":
		path = job.SummaryPath
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown file kind")
		return
	}

	if path == "" {
		shared.RespondWithError(w, r, http.StatusNotFound, "File not available")
		return
	}
	if _, err := os.Stat(path); err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "File not found or cannot be read")
		return
	}

	w.Header().Set("Content-Type", "text/markdown")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
