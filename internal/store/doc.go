// Package store holds the job registry, the dedup index, and the durable
// snapshot store. These are the only structures mutated by more than one
// job's worker concurrently; every operation on them is atomic with
// respect to concurrent callers. The rest of the application's core logic
// stays independent of how records are held or persisted.
package store
