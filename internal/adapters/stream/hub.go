// Package stream fans live match snapshots out to subscribers.
//
// The hub is a match.Sink. Publish never blocks: a subscriber whose buffer
// is full is dropped and its channel closed.
package stream

import (
	"context"
	"sync"

	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
)

const defaultBufferSize = 256

// Subscription delivers snapshots until it is closed or dropped.
type Subscription struct {
	// C is closed when the subscription ends.
	C <-chan model.Snapshot

	id      uint64
	matchID string
	send    chan model.Snapshot
	hub     *Hub
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s.id)
}

// Hub broadcasts snapshots to subscribers.
type Hub struct {
	mu         sync.Mutex
	subs       map[uint64]*Subscription
	next       uint64
	bufferSize int
	closed     bool

	logger logger.Logger
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:       make(map[uint64]*Subscription),
		bufferSize: defaultBufferSize,
		logger:     logger.GetOrNop().Named("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber. An empty matchID receives every match.
func (h *Hub) Subscribe(matchID string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	h.next++
	send := make(chan model.Snapshot, h.bufferSize)
	sub := &Subscription{C: send, id: h.next, matchID: matchID, send: send, hub: h}
	h.subs[sub.id] = sub
	metrics.UpdateStreamClients(1)
	return sub, nil
}

// Publish implements match.Sink.
func (h *Hub) Publish(ctx context.Context, s model.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		if sub.matchID != "" && sub.matchID != s.MatchID {
			continue
		}
		select {
		case sub.send <- s:
		default:
			h.logger.Warn(ctx, "dropping slow subscriber", logger.Int64("subscriber", int64(id)))
			h.dropLocked(id)
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id := range h.subs {
		h.dropLocked(id)
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(id)
}

func (h *Hub) dropLocked(id uint64) {
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.send)
	metrics.UpdateStreamClients(-1)
}
