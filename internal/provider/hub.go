package provider

import (
	"context"
	"sync"

	"crewbase.org/internal/identity"
)

// Hub fans session-state transitions out to all active subscribers. It keeps
// the most recent event so late subscribers observe the current state at
// subscription time.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	seq     uint64
	current *identity.Identity
}

// NewHub initialises a hub in the signed-out state.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns a channel which receives the
// current state immediately and every transition afterwards. The channel is
// closed when the provided context ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	ch <- Event{Identity: h.current, Seq: h.seq}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish records the new session state and fans it out. Returns the sequence
// number assigned to the transition.
func (h *Hub) Publish(id *identity.Identity) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.current = id
	evt := Event{Identity: id, Seq: h.seq}
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking; resolution is
			// last-write-wins so intermediate states may be skipped.
		}
	}
	return h.seq
}

// Current returns the last published state.
func (h *Hub) Current() Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Event{Identity: h.current, Seq: h.seq}
}
