// Package task implements asynchronous background processing for
// transcription jobs: a bounded in-memory queue, a worker pool that
// consumes it, and the pipeline task that drives one job from audio
// acquisition through summary generation.
package task
