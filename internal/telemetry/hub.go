// Package telemetry fans simulator snapshots out to every subscriber.
//
// Publish never blocks the caller: each subscriber owns a buffered channel
// and a subscriber whose buffer is full misses that snapshot.
package telemetry

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

const DefaultBuffer = 16

type subscriber struct {
	id     string
	events chan domain.Snapshot
	once   sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.events) })
}

// Hub manages snapshot distribution. The zero value is not usable; use NewHub.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber
	closed  bool
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes its channel; calling it more than once is safe.
func (h *Hub) Subscribe(buffer int) (<-chan domain.Snapshot, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &subscriber{
		id:     uuid.NewString(),
		events: make(chan domain.Snapshot, buffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub.events, func() {}
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	return sub.events, func() { h.unsubscribe(sub.id) }
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Publish delivers snap to every subscriber with room in its buffer.
func (h *Hub) Publish(snap domain.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	for _, sub := range h.subs {
		select {
		case sub.events <- snap:
		default:
			h.dropped.Add(1)
			log.Debug().Str("subscriber", sub.id).Uint64("sequence", snap.Sequence).Msg("subscriber slow; snapshot dropped")
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close closes every subscriber channel. Later publishes are ignored and
// later subscriptions receive an already-closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		sub.close()
		delete(h.subs, id)
	}
}
