package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/qwerprog/scribe-api/internal/api"
	"github.com/qwerprog/scribe-api/internal/config"
	"github.com/qwerprog/scribe-api/internal/metrics"
	"github.com/qwerprog/scribe-api/internal/notify"
	"github.com/qwerprog/scribe-api/internal/platform/gemini"
	"github.com/qwerprog/scribe-api/internal/platform/logger"
	platformmedia "github.com/qwerprog/scribe-api/internal/platform/media"
	"github.com/qwerprog/scribe-api/internal/service"
	"github.com/qwerprog/scribe-api/internal/store"
	"github.com/qwerprog/scribe-api/internal/task"
)

// shutdownTimeout bounds graceful HTTP shutdown on termination.
const shutdownTimeout = 10 * time.Second

// application bundles the long-lived components the server runs and
// tears down.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *store.Registry
	saver    *store.SnapshotStore
	hub      *notify.Hub
	queue    *task.TaskQueue
	pool     *task.WorkerPool
	router   http.Handler
}

// initializeApp loads configuration, restores persisted job state, and
// wires every component together.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)
	metrics.Init()

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Worker.Count,
		"queue_size", cfg.Worker.QueueSize,
		"temp_dir", cfg.Storage.TempDir)

	// Restore persisted jobs. Records interrupted mid-processing were
	// already reinterpreted as failed by Load.
	saver := store.NewSnapshotStore(cfg.Storage.TasksFile, log)
	restored, err := saver.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load job snapshot: %w", err)
	}
	registry := store.NewRegistry()
	for id, job := range restored {
		j := job
		registry.Put(id, &j)
	}

	dedup := store.NewDedupIndex()
	hub := notify.NewHub(log)
	queue := task.NewTaskQueue(cfg.Worker.QueueSize, log)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: cfg.Worker.Count}, log)

	ytdlp := platformmedia.NewYtDlpClient(cfg.Media.YtDlpPath, log)
	whisper := platformmedia.NewWhisperClient(cfg.Media.WhisperPath, cfg.Media.WhisperModel, log)

	engine, err := gemini.NewEngine(ctx, log, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text engine: %w", err)
	}

	factory, err := task.NewTranscriptionTaskFactory(task.TranscriptionTaskDeps{
		Store:       registry,
		Publisher:   hub,
		Saver:       saver,
		Releaser:    dedup,
		Resolver:    ytdlp,
		Acquirer:    ytdlp,
		Transcriber: whisper,
		Engine:      engine,
		WorkDir:     cfg.Storage.TempDir,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}

	jobService, err := service.NewJobService(registry, dedup, saver, hub, queue, factory, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	handler := api.NewJobHandler(jobService, hub, log)
	router := newRouter(handler, log)

	return &application{
		cfg:      cfg,
		logger:   log,
		registry: registry,
		saver:    saver,
		hub:      hub,
		queue:    queue,
		pool:     pool,
		router:   router,
	}, nil
}

// Run starts the worker pool, heartbeat loop, and HTTP server, then
// blocks until ctx ends and shutdown completes.
func (a *application) Run(ctx context.Context) error {
	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	defer stopHeartbeat()
	go a.hub.Run(heartbeatCtx, notify.DefaultHeartbeatInterval)

	a.pool.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: a.router,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown failed", "error", err)
	}

	// Stop accepting work and let in-flight pipeline runs wind down.
	a.queue.Close()
	a.pool.Stop()
	stopHeartbeat()

	// One final snapshot so the next start sees the latest state.
	if err := a.saver.Save(a.registry.Snapshot()); err != nil {
		a.logger.Error("failed to save final job snapshot", "error", err)
	}

	a.logger.Info("server stopped")
	return nil
}
