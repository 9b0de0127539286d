package eventbus

import (
	"context"
	"log"
	"sync"

	"github.com/matthewbaird/rentals/internal/event"
)

// Hub fans events out to live subscribers such as dashboard websocket
// connections. A subscriber that falls behind loses events rather than
// blocking the bus.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan event.DomainEvent]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{subs: make(map[chan event.DomainEvent]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan event.DomainEvent, func()) {
	ch := make(chan event.DomainEvent, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			log.Printf("eventbus: feed subscriber full, dropping %s", evt.EventType)
		}
	}
	return nil
}
