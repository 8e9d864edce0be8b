// Package media defines the interfaces for the external media tools the
// pipeline depends on: source metadata resolution, audio acquisition, and
// speech-to-text. It abstracts the details of shelling out to yt-dlp and
// whisper.cpp, allowing the pipeline driver to stay independent of
// specific external tools.
package media

import "context"

// VideoInfo holds the metadata resolved for a source URL.
type VideoInfo struct {
	Title string
	// Duration of the source in seconds, zero when unknown.
	Duration int64
}

// TranscriptionResult holds the output of a speech-to-text run.
type TranscriptionResult struct {
	Text             string
	DetectedLanguage string
}

// MetadataResolver resolves title and duration for a source URL without
// downloading media.
type MetadataResolver interface {
	Resolve(ctx context.Context, sourceURL string) (VideoInfo, error)
}

// AudioAcquirer downloads the best audio for a source URL into outputDir,
// normalized to mono 16 kHz, and returns the path of the produced file.
type AudioAcquirer interface {
	Acquire(ctx context.Context, sourceURL, outputDir string) (string, error)
}

// Transcriber converts an audio file to text. languageHint may be empty
// to request automatic language detection.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (TranscriptionResult, error)
}
