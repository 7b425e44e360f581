// Package progress implements the per-job publish/subscribe channel. Any
// number of subscribers receive the events published after they join; exactly
// one terminal event closes a job's stream and releases its subscribers.
package progress

import (
	"sync"

	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

// ObserverTopic carries best-effort completion summaries for operational
// observers. It is never terminated.
const ObserverTopic = "observers"

const subscriberBuffer = 16

// Subscription is one listener on a job's event stream. Events arrive on C;
// the channel is closed after the terminal event or when the subscription is
// released.
type Subscription struct {
	C chan models.ProgressEvent

	hub   *Hub
	topic string
	once  sync.Once
}

// Close releases the subscription. Safe to call more than once and safe to
// call after the hub already closed the stream.
func (s *Subscription) Close() {
	s.hub.release(s)
}

// Hub routes progress events to per-job subscriber sets.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for the given job. The caller must Close the
// subscription when done; the hub also closes it after the terminal event.
func (h *Hub) Subscribe(jobID string) *Subscription {
	sub := &Subscription{
		C:     make(chan models.ProgressEvent, subscriberBuffer),
		hub:   h,
		topic: jobID,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[jobID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[jobID] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// HasSubscribers reports whether anyone is currently listening on jobID.
func (h *Hub) HasSubscribers(jobID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[jobID]) > 0
}

// Publish delivers ev to every subscriber of ev.JobID. A terminal event
// closes the stream: subscriber channels are closed and the topic is dropped,
// so a publish after termination reaches nobody.
func (h *Hub) Publish(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[ev.JobID]
	for sub := range subs {
		h.send(sub, ev)
	}

	if ev.Kind.Terminal() {
		for sub := range subs {
			h.closeLocked(sub)
		}
		delete(h.topics, ev.JobID)
	}
}

// Broadcast delivers a best-effort summary to the observer topic. Unlike
// Publish it never terminates the stream, whatever the event kind.
func (h *Hub) Broadcast(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.topics[ObserverTopic] {
		h.send(sub, ev)
	}
}

// SubscribeObservers registers a listener on the observer topic.
func (h *Hub) SubscribeObservers() *Subscription {
	return h.Subscribe(ObserverTopic)
}

// send delivers without blocking the publisher. A slow subscriber loses
// intermediate updates, but a terminal event always displaces the oldest
// buffered update so the stream end is never lost.
func (h *Hub) send(sub *Subscription, ev models.ProgressEvent) {
	select {
	case sub.C <- ev:
		return
	default:
	}

	if !ev.Kind.Terminal() {
		h.logger.Warn("Dropping progress event; subscriber buffer full",
			zap.String("job_id", ev.JobID),
			zap.String("kind", string(ev.Kind)))
		return
	}

	select {
	case <-sub.C:
	default:
	}
	select {
	case sub.C <- ev:
	default:
	}
}

func (h *Hub) release(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
	h.closeLocked(sub)
}

// closeLocked closes the subscriber channel exactly once. Sends only happen
// under the hub lock, so closing here never races a delivery.
func (h *Hub) closeLocked(sub *Subscription) {
	sub.once.Do(func() { close(sub.C) })
}
