package task

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// maxFilenameLength bounds the sanitized title portion of artifact
// filenames.
const maxFilenameLength = 100

var filenameSanitizePattern = regexp.MustCompile(`[^\w\-.]+`)

// sanitizeFilename turns an arbitrary media title into a safe filename
// fragment. Unsafe runs become single underscores; an empty result
// falls back to "untitled".
func sanitizeFilename(name string) string {
	sanitized := filenameSanitizePattern.ReplaceAllString(name, "_")
	sanitized = regexp.MustCompile(`_+`).ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_")

	if len(sanitized) > maxFilenameLength {
		sanitized = sanitized[:maxFilenameLength]
		sanitized = strings.TrimRight(sanitized, "_")
	}

	if sanitized == "" {
		return "untitled"
	}
	return sanitized
}

// artifactName builds the filename for one result artifact:
// <kind>_<sanitized title>_<first 6 chars of the job ID>.md
func artifactName(kind, title, jobID string) string {
	short := jobID
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("%s_%s_%s.md", kind, sanitizeFilename(title), short)
}

// writeArtifact writes content to dir/name and returns the full path.
func writeArtifact(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return path, nil
}
