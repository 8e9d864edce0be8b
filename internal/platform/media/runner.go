// Package media implements the yt-dlp and whisper.cpp clients behind the
// interfaces in internal/media.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec. Commands run under the
// caller's context, so cancelling a job kills the in-flight tool and the
// blocked stage unwinds with the context error.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		// A killed process surfaces as "signal: killed"; report the
		// context error instead when the context caused the kill, so
		// callers can tell cancellation from a genuine tool failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("command interrupted: %w", ctxErr)
		}
		return result, err
	}

	return result, nil
}

// isNotFound reports whether err indicates the executable itself is
// missing rather than a failed run.
func isNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}
