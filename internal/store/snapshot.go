package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qwerprog/scribe-api/internal/domain"
)

// SnapshotStore persists the full job registry to a single durable JSON
// file. Saves replace the file atomically (write to a temporary file,
// then rename), so a crash mid-write never corrupts the previous
// snapshot. Absence of the file is a valid "empty" initial state.
type SnapshotStore struct {
	path   string
	logger *slog.Logger
}

// NewSnapshotStore creates a snapshot store writing to the given path.
func NewSnapshotStore(path string, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		path:   path,
		logger: logger.With("component", "snapshot_store"),
	}
}

// Save writes all records to the durable file. The write lands in a
// sibling temporary file first and is renamed over the target, so the
// old snapshot stays valid until the rename succeeds.
func (s *SnapshotStore) Save(jobs map[string]domain.Job) error {
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := writeAndSync(tmp, data); err != nil {
		// Leave no stale temporary file behind.
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	s.logger.Debug("saved job snapshot", "path", s.path, "job_count", len(jobs))
	return nil
}

// Load reads the durable file if present. A missing file yields an empty
// map, not an error. Any record found still in processing state is
// reinterpreted as failed: the runtime execution handle is not
// persisted, so a restart cannot resume an in-flight run.
func (s *SnapshotStore) Load() (map[string]domain.Job, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no snapshot file found, starting empty", "path", s.path)
			return make(map[string]domain.Job), nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var jobs map[string]domain.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	if jobs == nil {
		jobs = make(map[string]domain.Job)
	}

	for id, job := range jobs {
		if job.Status == domain.JobStatusProcessing {
			s.logger.Warn("job was processing at snapshot time, marking failed",
				"job_id", id)
			job.Fail("Application restarted during processing.", "Processing interrupted")
			jobs[id] = job
		}
	}

	s.logger.Info("loaded job snapshot", "path", s.path, "job_count", len(jobs))
	return jobs, nil
}

// writeAndSync writes data to path and flushes it to stable storage
// before the caller renames it into place.
func writeAndSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
