package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/qwerprog/scribe-api/internal/media"
)

// WhisperClient transcribes normalized audio by shelling out to a
// whisper.cpp binary. It implements media.Transcriber.
type WhisperClient struct {
	path      string
	modelPath string
	runner    commandRunner
	logger    *slog.Logger
}

// NewWhisperClient creates a client for the whisper.cpp executable and
// model at the given paths.
func NewWhisperClient(path, modelPath string, logger *slog.Logger) *WhisperClient {
	return &WhisperClient{
		path:      path,
		modelPath: modelPath,
		runner:    &execRunner{},
		logger:    logger.With("component", "whisper_client"),
	}
}

// Transcribe runs whisper.cpp over the audio file. With an empty
// languageHint the tool auto-detects the language; the detection result
// is reported back to the caller. whisper.cpp writes the transcript to a
// sibling .txt file; stdout is used as a fallback when that file is
// missing.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath, languageHint string) (media.TranscriptionResult, error) {
	args := []string{
		"-m", c.modelPath,
		"-f", audioPath,
		"--output-txt",
	}
	if languageHint != "" {
		args = append(args, "-l", languageHint)
	}

	c.logger.Info("transcribing audio", "path", audioPath, "language_hint", languageHint)

	result, err := c.runner.Run(ctx, c.path, args...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return media.TranscriptionResult{}, err
		}
		if isNotFound(err) {
			return media.TranscriptionResult{}, fmt.Errorf("%w: %s", media.ErrToolNotFound, c.path)
		}
		c.logger.Error("whisper.cpp failed",
			"exit_code", result.ExitCode,
			"stderr", result.Stderr)
		return media.TranscriptionResult{}, fmt.Errorf(
			"%w: transcribe (exit %d): %s", media.ErrExecFailed, result.ExitCode, result.Stderr)
	}

	transcript := strings.TrimSpace(result.Stdout)
	outputTxt := audioPath + ".txt"
	if data, err := os.ReadFile(outputTxt); err == nil {
		transcript = strings.TrimSpace(string(data))
		_ = os.Remove(outputTxt)
	}

	detected := detectLanguage(result.Stderr, languageHint)

	c.logger.Info("transcription complete",
		"transcript_length", len(transcript),
		"detected_language", detected)
	return media.TranscriptionResult{
		Text:             transcript,
		DetectedLanguage: detected,
	}, nil
}

// detectLanguage extracts the auto-detected language from whisper.cpp's
// diagnostic output ("auto-detected language: en ..."). The hint wins
// when one was given; "en" is the fallback when detection is absent.
func detectLanguage(stderr, hint string) string {
	if hint != "" {
		return hint
	}

	const marker = "auto-detected language:"
	if idx := strings.Index(stderr, marker); idx >= 0 {
		rest := strings.TrimSpace(stderr[idx+len(marker):])
		if fields := strings.Fields(rest); len(fields) > 0 {
			return strings.ToLower(fields[0])
		}
	}
	return "en"
}
