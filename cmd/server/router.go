package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/qwerprog/scribe-api/internal/api"
	"github.com/qwerprog/scribe-api/internal/metrics"
)

// newRouter builds the HTTP routing table with the standard middleware
// stack.
func newRouter(handler *api.JobHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/process", handler.Submit)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Get("/{taskID}", handler.GetStatus)
			r.Get("/{taskID}/stream", handler.Stream)
			r.Get("/{taskID}/files/{kind}", handler.DownloadFile)
			r.Delete("/{taskID}", handler.Delete)
		})
	})

	logger.Debug("router configured")
	return r
}

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
