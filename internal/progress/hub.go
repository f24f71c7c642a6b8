// Package progress fans generation events out to SSE subscribers. Each
// job has its own stream; publishing never blocks the pipeline, and a
// subscriber that cannot keep up is disconnected rather than shown a
// gapped event sequence.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ===== EVENTS =====

// EventType enumerates the progress event vocabulary.
type EventType string

const (
	EventConnected       EventType = "connected"
	EventAgentStart      EventType = "agent_start"
	EventAgentComplete   EventType = "agent_complete"
	EventIterationStart  EventType = "iteration_start"
	EventViolationUpdate EventType = "violation_update"
	EventScoreUpdate     EventType = "score_update"
	EventMoERouting      EventType = "moe_routing"
	EventCompleted       EventType = "completed"
	EventError           EventType = "error"

	EventAlternativeStart      EventType = "alternative_start"
	EventAlternativeProgress   EventType = "alternative_progress"
	EventAlternativeComplete   EventType = "alternative_complete"
	EventAlternativeError      EventType = "alternative_error"
	EventAlternativesCompleted EventType = "alternatives_completed"
)

// Terminal reports whether the event ends its job's stream.
func (t EventType) Terminal() bool {
	switch t {
	case EventCompleted, EventError, EventAlternativesCompleted:
		return true
	}
	return false
}

// Event is one progress update on a job's stream.
type Event struct {
	Type      EventType      `json:"type"`
	JobID     string         `json:"jobId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// ===== HUB =====

// DefaultBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind is dropped.
const DefaultBuffer = 64

// maxRetainedStreams bounds how many finished streams are kept for
// late-subscriber terminal replay. Comfortably above the job store's
// capacity so a stream outlives its job, never the other way round.
const maxRetainedStreams = 2000

type stream struct {
	subs     map[int]chan Event
	nextID   int
	terminal *Event
	closed   bool
}

// Hub routes events to per-job subscribers.
//
// Delivery guarantees: every subscriber sees a strict prefix of the
// job's event sequence in publish order. When a subscriber's buffer is
// full the hub closes and removes that subscriber instead of skipping
// events, so a consumer can trust that what it saw had nothing missing
// in the middle. The terminal event is retained: subscribing after the
// job finished yields exactly that event, then a closed channel.
type Hub struct {
	mu      sync.Mutex
	streams map[string]*stream
	buffer  int
	logger  *zap.Logger
}

// NewHub creates a hub with the default subscriber buffer.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		streams: make(map[string]*stream),
		buffer:  DefaultBuffer,
		logger:  logger.Named("progress"),
	}
}

// Publish delivers an event to every subscriber of its job. Publishing
// to a finished stream is a no-op. A terminal event is retained for
// late subscribers and closes the stream after delivery.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.ensureStreamLocked(ev.JobID)
	if st.closed {
		return
	}

	for id, ch := range st.subs {
		select {
		case ch <- ev:
		default:
			// Full buffer: disconnecting preserves the prefix guarantee,
			// delivering around the jam would not.
			close(ch)
			delete(st.subs, id)
			h.logger.Warn("dropped slow progress subscriber",
				zap.String("job_id", ev.JobID),
				zap.Int("subscriber", id))
		}
	}

	if ev.Type.Terminal() {
		st.terminal = &ev
		st.closed = true
		for id, ch := range st.subs {
			close(ch)
			delete(st.subs, id)
		}
	}
}

// Subscribe attaches to a job's stream. The returned cancel func is
// idempotent and safe to call after the stream ended. Subscribing to a
// finished job yields its terminal event and then a closed channel;
// subscribing to an unknown job yields an open, silent stream (callers
// are expected to have resolved the job first).
func (h *Hub) Subscribe(jobID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.ensureStreamLocked(jobID)
	if st.closed {
		ch := make(chan Event, 1)
		if st.terminal != nil {
			ch <- *st.terminal
		}
		close(ch)
		return ch, func() {}
	}

	id := st.nextID
	st.nextID++
	ch := make(chan Event, h.buffer)
	st.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := st.subs[id]; ok {
			close(sub)
			delete(st.subs, id)
		}
	}
	return ch, cancel
}

// CloseJob force-closes a job's stream without a terminal event, for
// shutdown paths. Subscribers' channels are closed; late subscribers
// get an immediately closed, empty channel.
func (h *Hub) CloseJob(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, ok := h.streams[jobID]
	if !ok || st.closed {
		return
	}
	st.closed = true
	for id, ch := range st.subs {
		close(ch)
		delete(st.subs, id)
	}
}

// SubscriberCount reports live subscribers on a job, for metrics.
func (h *Hub) SubscriberCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.streams[jobID]
	if !ok {
		return 0
	}
	return len(st.subs)
}

func (h *Hub) ensureStreamLocked(jobID string) *stream {
	st, ok := h.streams[jobID]
	if !ok {
		h.pruneLocked()
		st = &stream{subs: make(map[int]chan Event)}
		h.streams[jobID] = st
	}
	return st
}

// pruneLocked drops finished streams once the retained set outgrows the
// cap. Only closed streams are candidates; an open stream always
// belongs to a job the store still tracks.
func (h *Hub) pruneLocked() {
	if len(h.streams) < maxRetainedStreams {
		return
	}
	for id, st := range h.streams {
		if !st.closed {
			continue
		}
		delete(h.streams, id)
		if len(h.streams) < maxRetainedStreams {
			return
		}
	}
}
