// Package eventbus fans committed rental events out to in-process consumers:
// the event log, tenant and landlord notifications, and the live dashboard
// feed.
package eventbus

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matthewbaird/rentals/internal/event"
)

const defaultBuffer = 256

// Handler consumes one event. A returned error is logged and counted; it
// never stops delivery to other handlers.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.DomainEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, evt event.DomainEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	return f(ctx, evt)
}

// Stats counts what the bus has done since it was created.
type Stats struct {
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

type subscription struct {
	name       string
	handler    Handler
	eventTypes []string // empty receives every event
}

func (s subscription) wants(eventType string) bool {
	return len(s.eventTypes) == 0 || slices.Contains(s.eventTypes, eventType)
}

// Bus queues events on a buffered channel and delivers them from a single
// goroutine, in publish order, so consumers writing to SQLite never contend.
type Bus struct {
	mu      sync.RWMutex
	subs    []subscription
	queue   chan event.DomainEvent
	done    chan struct{}
	stopped bool

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// New creates a Bus holding up to buffer undelivered events. A buffer below
// one uses the default of 256.
func New(buffer int) *Bus {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Bus{
		queue: make(chan event.DomainEvent, buffer),
		done:  make(chan struct{}),
	}
}

// Subscribe delivers every event to h.
func (b *Bus) Subscribe(name string, h Handler) {
	b.SubscribeTo(name, h)
}

// SubscribeTo delivers only the listed event types to h. Subscriptions
// should be made before Start.
func (b *Bus) SubscribeTo(name string, h Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h, eventTypes: eventTypes})
}

// Publish queues evt without blocking the caller, who has already committed
// the mutation behind it. Events published to a full or stopped bus are
// dropped; the activity store still holds them.
func (b *Bus) Publish(_ context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.drop(evt, "stopped")
		return
	}
	select {
	case b.queue <- evt:
		b.published.Add(1)
	default:
		b.drop(evt, "buffer full")
	}
}

func (b *Bus) drop(evt event.DomainEvent, why string) {
	b.dropped.Add(1)
	log.Printf("eventbus: %s, dropping %s (%s)", why, evt.EventType, evt.ID)
}

// Start delivers queued events until Stop is called or ctx is cancelled.
// On cancellation whatever is already queued is still delivered.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.queue:
				if !ok {
					return
				}
				b.deliver(ctx, evt)
			case <-ctx.Done():
				b.drain(ctx)
				return
			}
		}
	}()
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case evt, ok := <-b.queue:
			if !ok {
				return
			}
			b.deliver(ctx, evt)
		default:
			return
		}
	}
}

// Stop refuses further events and waits until the queue is delivered.
// Start must have been called. Calling Stop twice is harmless.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	close(b.queue)
	b.mu.Unlock()
	<-b.done

	s := b.Stats()
	log.Printf("eventbus: stopped published=%d dropped=%d failed=%d", s.Published, s.Dropped, s.Failed)
}

// Stats returns the current counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Dropped:   b.dropped.Load(),
		Failed:    b.failed.Load(),
	}
}

func (b *Bus) deliver(ctx context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.wants(evt.EventType) {
			continue
		}
		if err := safeHandle(ctx, s.handler, evt); err != nil {
			b.failed.Add(1)
			log.Printf("eventbus: %s failed on %s (%s): %v", s.name, evt.EventType, evt.ID, err)
		}
	}
}

// safeHandle turns a handler panic into an error so one bad consumer cannot
// stop delivery.
func safeHandle(ctx context.Context, h Handler, evt event.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.HandleEvent(ctx, evt)
}
