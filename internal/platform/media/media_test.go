package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerprog/scribe-api/internal/media"
)

// fakeRunner records invocations and returns scripted results.
type fakeRunner struct {
	result   commandResult
	err      error
	lastName string
	lastArgs []string
	onRun    func(name string, args []string)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.lastName = name
	f.lastArgs = args
	if f.onRun != nil {
		f.onRun(name, args)
	}
	return f.result, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestYtDlpResolve(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{
			Stdout: `{"title": "How Go Channels Work", "duration": 612.4}`,
		},
	}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	info, err := client.Resolve(context.Background(), "https://example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "How Go Channels Work", info.Title)
	assert.Equal(t, int64(612), info.Duration)

	assert.Contains(t, runner.lastArgs, "--print-json")
	assert.Contains(t, runner.lastArgs, "--skip-download")
	assert.Contains(t, runner.lastArgs, "https://example.com/v1")
}

func TestYtDlpResolveEmptyTitle(t *testing.T) {
	runner := &fakeRunner{result: commandResult{Stdout: `{}`}}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	info, err := client.Resolve(context.Background(), "https://example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "untitled", info.Title)
}

func TestYtDlpResolveBadJSON(t *testing.T) {
	runner := &fakeRunner{result: commandResult{Stdout: "not json"}}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	_, err := client.Resolve(context.Background(), "https://example.com/v1")
	assert.Error(t, err)
}

func TestYtDlpResolveToolNotFound(t *testing.T) {
	runner := &fakeRunner{
		err: &exec.Error{Name: "yt-dlp", Err: exec.ErrNotFound},
	}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	_, err := client.Resolve(context.Background(), "https://example.com/v1")
	assert.ErrorIs(t, err, media.ErrToolNotFound)
}

func TestYtDlpAcquireProducesExpectedFile(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	runner.onRun = func(name string, args []string) {
		// Simulate yt-dlp writing the m4a named by the -o template.
		for i, a := range args {
			if a == "-o" {
				template := args[i+1]
				path := template[:len(template)-len(".%(ext)s")] + ".m4a"
				require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
			}
		}
	}

	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	path, err := client.Acquire(context.Background(), "https://example.com/v1", dir)
	require.NoError(t, err)
	assert.Equal(t, ".m4a", filepath.Ext(path))
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	assert.Contains(t, runner.lastArgs, "-x")
	assert.Contains(t, runner.lastArgs, "ffmpeg:-ac 1 -ar 16000")
}

func TestYtDlpAcquireOutputMissing(t *testing.T) {
	runner := &fakeRunner{}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	_, err := client.Acquire(context.Background(), "https://example.com/v1", t.TempDir())
	assert.ErrorIs(t, err, media.ErrOutputMissing)
}

func TestYtDlpAcquireNonZeroExit(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{ExitCode: 1, Stderr: "ERROR: unsupported URL"},
		err:    assert.AnError,
	}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	_, err := client.Acquire(context.Background(), "https://example.com/v1", t.TempDir())
	require.ErrorIs(t, err, media.ErrExecFailed)
	assert.Contains(t, err.Error(), "unsupported URL")
}

func TestWhisperTranscribeFromOutputFile(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "audio_ab12cd34.m4a")
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0o644))

	runner := &fakeRunner{
		result: commandResult{
			Stdout: "ignored inline output",
			Stderr: "whisper_init... auto-detected language: ja (p = 0.97)",
		},
	}
	runner.onRun = func(name string, args []string) {
		require.NoError(t, os.WriteFile(audioPath+".txt", []byte("  こんにちは世界\n"), 0o644))
	}

	client := NewWhisperClient("/usr/local/bin/whisper", "/models/ggml-base.bin", testLogger())
	client.runner = runner

	result, err := client.Transcribe(context.Background(), audioPath, "")
	require.NoError(t, err)
	assert.Equal(t, "こんにちは世界", result.Text)
	assert.Equal(t, "ja", result.DetectedLanguage)

	// The intermediate .txt is cleaned up.
	_, statErr := os.Stat(audioPath + ".txt")
	assert.True(t, os.IsNotExist(statErr))

	assert.Contains(t, runner.lastArgs, "-m")
	assert.Contains(t, runner.lastArgs, "/models/ggml-base.bin")
	assert.NotContains(t, runner.lastArgs, "-l")
}

func TestWhisperTranscribeStdoutFallbackAndHint(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{Stdout: "hello world\n"},
	}
	client := NewWhisperClient("whisper", "/models/ggml-base.bin", testLogger())
	client.runner = runner

	result, err := client.Transcribe(context.Background(), "/nonexistent/audio.m4a", "en")
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)
	// The hint wins over detection.
	assert.Equal(t, "en", result.DetectedLanguage)
	assert.Contains(t, runner.lastArgs, "-l")
	assert.Contains(t, runner.lastArgs, "en")
}

func TestExecRunnerReportsContextError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := &execRunner{}
	_, err := runner.Run(ctx, "sleep", "5")
	require.Error(t, err)
	// The killed process must not mask why it was killed.
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestYtDlpCancellationPassesThrough(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{ExitCode: -1, Stderr: "signal: killed"},
		err:    fmt.Errorf("command interrupted: %w", context.Canceled),
	}
	client := NewYtDlpClient("yt-dlp", testLogger())
	client.runner = runner

	_, err := client.Acquire(context.Background(), "https://example.com/v1", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, media.ErrExecFailed)
}

func TestWhisperCancellationPassesThrough(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{ExitCode: -1},
		err:    fmt.Errorf("command interrupted: %w", context.Canceled),
	}
	client := NewWhisperClient("whisper", "/models/ggml-base.bin", testLogger())
	client.runner = runner

	_, err := client.Transcribe(context.Background(), "/tmp/a.m4a", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, media.ErrExecFailed)
}

func TestWhisperTranscribeFailure(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{ExitCode: 3, Stderr: "failed to load model"},
		err:    assert.AnError,
	}
	client := NewWhisperClient("whisper", "/models/missing.bin", testLogger())
	client.runner = runner

	_, err := client.Transcribe(context.Background(), "/tmp/a.m4a", "")
	require.ErrorIs(t, err, media.ErrExecFailed)
	assert.Contains(t, err.Error(), "failed to load model")
}
