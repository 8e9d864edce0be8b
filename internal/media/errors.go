package media

import "errors"

// Common errors returned by media tool clients.
var (
	// ErrToolNotFound is returned when the external executable is not
	// installed or not on the configured path.
	ErrToolNotFound = errors.New("media tool not found")

	// ErrExecFailed is returned when the external tool exits non-zero.
	// The wrapped error carries the tool's stderr.
	ErrExecFailed = errors.New("media tool execution failed")

	// ErrOutputMissing is returned when the tool exits successfully but
	// the expected output file was not produced.
	ErrOutputMissing = errors.New("expected media tool output missing")
)
