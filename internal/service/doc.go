// Package service implements the orchestration layer between the HTTP
// boundary and the job machinery: submission with per-URL
// deduplication, read access, and cancellation with removal. It owns
// the coupling between the registry, the dedup index, the snapshot
// store, the notification hub, and the task queue.
package service
