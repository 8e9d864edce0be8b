// Package notify implements the live-update fan-out for job state.
//
// The hub keeps a set of subscriber channels per job ID. The pipeline
// driver pushes state snapshots into the hub on every transition; each
// subscriber (typically an SSE connection) receives them in order. A
// periodic keep-alive is emitted to every job with at least one
// subscriber so idle delivery transports are not timed out.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qwerprog/scribe-api/internal/domain"
)

// EventType distinguishes state deltas from keep-alive signals.
type EventType string

const (
	// EventTaskUpdate carries a job state snapshot.
	EventTaskUpdate EventType = "task_update"
	// EventHeartbeat is a keep-alive signal carrying no job data.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message delivered to a subscriber channel.
type Event struct {
	Type EventType
	Job  domain.Job
}

// subscriberBuffer is the per-channel buffer. A subscriber that falls
// this far behind is considered dead and is dropped rather than allowed
// to block delivery to others.
const subscriberBuffer = 16

// DefaultHeartbeatInterval matches the keep-alive cadence expected by
// the SSE transport.
const DefaultHeartbeatInterval = 25 * time.Second

// Hub fans job state snapshots out to live subscribers, per job ID.
// Subscribe, Publish, and CloseAll are safe to call concurrently.
type Hub struct {
	mu     sync.Mutex
	subs   map[string][]chan Event
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string][]chan Event),
		logger: logger.With("component", "notify_hub"),
	}
}

// Subscribe registers a new delivery channel for the job ID and returns
// it alongside an unsubscribe function. Subscribing to a job ID the hub
// has never seen is valid; the subscriber simply waits for the first
// publish. The channel is closed by CloseAll, by a dropped-subscriber
// prune, or by the unsubscribe function, whichever happens first.
func (h *Hub) Subscribe(jobID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[jobID] = append(h.subs[jobID], ch)
	count := len(h.subs[jobID])
	h.mu.Unlock()

	h.logger.Debug("subscriber added", "job_id", jobID, "subscriber_count", count)

	unsubscribe := func() {
		h.remove(jobID, ch)
	}
	return ch, unsubscribe
}

// Publish delivers the snapshot to every subscriber of the job ID. A
// subscriber whose buffer is full is dropped and its channel closed;
// delivery to the remaining subscribers always proceeds.
func (h *Hub) Publish(jobID string, snapshot domain.Job) {
	h.send(jobID, Event{Type: EventTaskUpdate, Job: snapshot})
}

// CloseAll completes and removes every subscriber channel for the job
// ID. Invoked when the job reaches a terminal state; the terminal
// snapshot must be published before calling CloseAll so subscribers see
// it as their final update.
func (h *Hub) CloseAll(jobID string) {
	h.mu.Lock()
	channels := h.subs[jobID]
	delete(h.subs, jobID)
	h.mu.Unlock()

	for _, ch := range channels {
		close(ch)
	}
	if len(channels) > 0 {
		h.logger.Debug("closed all subscribers", "job_id", jobID, "count", len(channels))
	}
}

// Run emits keep-alive events at the given interval to every job with at
// least one subscriber, pruning job entries that have none left. It
// blocks until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.heartbeat()
		}
	}
}

// heartbeat sends a keep-alive to all subscribed jobs and prunes empty
// per-job sets.
func (h *Hub) heartbeat() {
	h.mu.Lock()
	jobIDs := make([]string, 0, len(h.subs))
	for jobID, channels := range h.subs {
		if len(channels) == 0 {
			delete(h.subs, jobID)
			continue
		}
		jobIDs = append(jobIDs, jobID)
	}
	h.mu.Unlock()

	for _, jobID := range jobIDs {
		h.send(jobID, Event{Type: EventHeartbeat})
	}
}

// send delivers an event to the job's subscribers, dropping any whose
// buffer is full.
func (h *Hub) send(jobID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels := h.subs[jobID]
	if len(channels) == 0 {
		return
	}

	alive := channels[:0]
	for _, ch := range channels {
		select {
		case ch <- ev:
			alive = append(alive, ch)
		default:
			close(ch)
			h.logger.Warn("dropping slow subscriber", "job_id", jobID)
		}
	}
	if len(alive) == 0 {
		delete(h.subs, jobID)
	} else {
		h.subs[jobID] = alive
	}
}

// remove detaches one channel from a job's subscriber set and closes it.
func (h *Hub) remove(jobID string, target chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels := h.subs[jobID]
	for i, ch := range channels {
		if ch == target {
			h.subs[jobID] = append(channels[:i], channels[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.subs[jobID]) == 0 {
		delete(h.subs, jobID)
	}
}

// SubscriberCount reports the number of live subscribers for a job ID.
func (h *Hub) SubscriberCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[jobID])
}
