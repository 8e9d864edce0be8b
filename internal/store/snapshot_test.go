package store

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerprog/scribe-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "tasks.json"), testLogger())

	jobs, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	store := NewSnapshotStore(path, testLogger())

	completed := newTestJob(t, "https://example.com/a")
	completed.Complete("Processing completed")
	completed.Title = "A Talk"
	completed.ScriptPath = "/tmp/transcript_a.md"

	require.NoError(t, store.Save(map[string]domain.Job{
		completed.ID: completed.Snapshot(),
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[completed.ID]
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, "A Talk", got.Title)
	assert.Equal(t, "/tmp/transcript_a.md", got.ScriptPath)
	assert.Equal(t, 100, got.Progress)
}

func TestSnapshotLoadReinterpretsProcessing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	store := NewSnapshotStore(path, testLogger())

	inFlight := newTestJob(t, "https://example.com/a")
	inFlight.UpdateProgress(35, "Transcribing audio...")

	require.NoError(t, store.Save(map[string]domain.Job{
		inFlight.ID: inFlight.Snapshot(),
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	got := loaded[inFlight.ID]
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, "Application restarted during processing.", got.Error)
	assert.Equal(t, 35, got.Progress, "progress keeps its last checkpoint")
}

func TestSnapshotRuntimeFieldsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	store := NewSnapshotStore(path, testLogger())

	job := newTestJob(t, "https://example.com/a")
	job.AudioFilePath = "/tmp/audio_xyz.m4a"

	require.NoError(t, store.Save(map[string]domain.Job{job.ID: job.Snapshot()}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "audio_xyz.m4a")
	assert.True(t, json.Valid(raw))
}

func TestSnapshotSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	store := NewSnapshotStore(path, testLogger())

	job := newTestJob(t, "https://example.com/a")
	require.NoError(t, store.Save(map[string]domain.Job{job.ID: job.Snapshot()}))

	var names []string
	require.NoError(t, filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, d.Name())
		}
		return nil
	}))
	assert.Equal(t, []string{"tasks.json"}, names)
}

func TestSnapshotSaveReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	store := NewSnapshotStore(path, testLogger())

	first := newTestJob(t, "https://example.com/a")
	require.NoError(t, store.Save(map[string]domain.Job{first.ID: first.Snapshot()}))

	second := newTestJob(t, "https://example.com/b")
	require.NoError(t, store.Save(map[string]domain.Job{second.ID: second.Snapshot()}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	_, ok := loaded[second.ID]
	assert.True(t, ok)
}
