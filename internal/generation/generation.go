// Package generation provides interfaces and implementations for
// interacting with external LLM services for text post-processing. It
// abstracts the details of LLM API integration (Gemini), allowing the
// pipeline to optimize, translate, and summarize transcripts without
// coupling to a specific external service.
package generation

import "context"

// TextEngine is the boundary between the pipeline and the language-model
// collaborators. Optimization and translation are best-effort: when the
// engine is unavailable they return their input unchanged. Summarization
// returns a fixed placeholder when unavailable.
type TextEngine interface {
	// Available reports whether the engine is configured and usable.
	// Callers may check it once; the unavailable behaviors below hold
	// regardless.
	Available() bool

	// OptimizeTranscript cleans up a raw transcript: grammar,
	// punctuation, and paragraph structure, preserving content.
	// Returns rawText unchanged when the engine is unavailable.
	OptimizeTranscript(ctx context.Context, rawText string) (string, error)

	// Translate renders text into targetLanguage. Returns text
	// unchanged when the engine is unavailable or the languages are
	// equivalent.
	Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error)

	// Summarize produces a summary of text in targetLanguage, using the
	// title for context.
	Summarize(ctx context.Context, text, targetLanguage, title string) (string, error)
}
