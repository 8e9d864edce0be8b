package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/qwerprog/scribe-api/internal/media"
)

// YtDlpClient resolves source metadata and acquires normalized audio by
// shelling out to yt-dlp. It implements media.MetadataResolver and
// media.AudioAcquirer.
type YtDlpClient struct {
	path   string
	runner commandRunner
	logger *slog.Logger
}

// NewYtDlpClient creates a client using the yt-dlp executable at path
// (a bare command name resolves via PATH).
func NewYtDlpClient(path string, logger *slog.Logger) *YtDlpClient {
	return &YtDlpClient{
		path:   path,
		runner: &execRunner{},
		logger: logger.With("component", "ytdlp_client"),
	}
}

// ytDlpInfo is the subset of yt-dlp's --print-json output we consume.
type ytDlpInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// Resolve fetches title and duration for the source URL without
// downloading any media.
func (c *YtDlpClient) Resolve(ctx context.Context, sourceURL string) (media.VideoInfo, error) {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--print-json",
		"--skip-download",
		sourceURL,
	}

	c.logger.Info("resolving video metadata", "url", sourceURL)

	result, err := c.runner.Run(ctx, c.path, args...)
	if err != nil {
		return media.VideoInfo{}, c.wrapRunError("resolve metadata", result, err)
	}

	var info ytDlpInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return media.VideoInfo{}, fmt.Errorf("failed to parse yt-dlp metadata output: %w", err)
	}

	title := info.Title
	if title == "" {
		title = "untitled"
	}

	c.logger.Info("video metadata resolved", "title", title, "duration_seconds", int64(info.Duration))
	return media.VideoInfo{
		Title:    title,
		Duration: int64(info.Duration),
	}, nil
}

// Acquire downloads the best audio for the source URL into outputDir,
// extracted to m4a and post-processed by ffmpeg to mono 16 kHz. Returns
// the path of the produced file.
func (c *YtDlpClient) Acquire(ctx context.Context, sourceURL, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	baseName := "audio_" + uuid.New().String()[:8]
	outputTemplate := filepath.Join(outputDir, baseName+".%(ext)s")
	expectedOutput := filepath.Join(outputDir, baseName+".m4a")

	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "m4a",
		"--audio-quality", "192K",
		// Normalize for whisper: mono, 16 kHz sample rate.
		"--ppa", "ffmpeg:-ac 1 -ar 16000",
		"-o", outputTemplate,
		sourceURL,
	}

	c.logger.Info("acquiring audio", "url", sourceURL, "output", expectedOutput)

	result, err := c.runner.Run(ctx, c.path, args...)
	if err != nil {
		return "", c.wrapRunError("acquire audio", result, err)
	}

	if _, err := os.Stat(expectedOutput); err != nil {
		// yt-dlp occasionally keeps a different container despite
		// --audio-format; accept any audio file with our base name.
		if found := findByPrefix(outputDir, baseName, ".m4a", ".mp3", ".ogg", ".wav"); found != "" {
			c.logger.Warn("expected output missing, using alternative audio file",
				"expected", expectedOutput, "found", found)
			return found, nil
		}
		return "", fmt.Errorf("%w: %s", media.ErrOutputMissing, expectedOutput)
	}

	c.logger.Info("audio acquired", "path", expectedOutput)
	return expectedOutput, nil
}

// wrapRunError converts a runner failure into the package's error
// taxonomy, carrying stderr for diagnosis. Context errors pass through
// unwrapped so cancellation stays distinguishable upstream.
func (c *YtDlpClient) wrapRunError(op string, result commandResult, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %s (%s)", media.ErrToolNotFound, c.path, op)
	}
	c.logger.Error("yt-dlp failed",
		"operation", op,
		"exit_code", result.ExitCode,
		"stderr", result.Stderr)
	return fmt.Errorf("%w: %s (exit %d): %s", media.ErrExecFailed, op, result.ExitCode, result.Stderr)
}

// findByPrefix returns the first file in dir whose name starts with
// prefix and ends with one of the extensions, or "".
func findByPrefix(dir, prefix string, extensions ...string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range extensions {
			if filepath.Ext(name) == ext && len(name) >= len(prefix) && name[:len(prefix)] == prefix {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}
