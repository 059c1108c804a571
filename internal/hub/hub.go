// Package hub fans newly persisted entries out to live observers.
//
// The hub is single-process and best effort: an event reaches the
// subscriptions registered at publish time, at most once each, and is
// never replayed. The entry store stays the durable record.
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// DefaultBufferSize is the per-subscription event buffer. A subscriber
// that falls this far behind starts losing events (drop-newest) until it
// drains its channel.
const DefaultBufferSize = 64

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("hub closed")

// Hub owns the set of live subscriptions.
//
// One mutex guards the set. Publish holds it for the whole fan-out and
// only performs non-blocking sends, so per-subscriber delivery order is
// publish order and a slow subscriber never stalls a publisher.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
	bufferSize  int
	closed      bool
	nextID      uint64
}

// New creates a hub. bufferSize <= 0 selects DefaultBufferSize.
func New(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subscribers: make(map[*Subscription]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscription is one observer's handle on the hub.
type Subscription struct {
	id      uint64
	hub     *Hub
	events  chan domain.LiveEvent
	done    chan struct{}
	gone    <-chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() uint64 { return s.id }

// Events delivers live events. The channel is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan domain.LiveEvent { return s.events }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Dropped counts events lost to a full buffer.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s)
}

// Subscribe registers a new subscription bound to ctx. Once ctx is done
// the subscription is pruned on the next publish even if nobody calls
// Close.
func (h *Hub) Subscribe(ctx context.Context) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		hub:    h,
		events: make(chan domain.LiveEvent, h.bufferSize),
		done:   make(chan struct{}),
		gone:   ctx.Done(),
	}
	h.subscribers[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe removes sub and closes its channels.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// removeLocked must be called with h.mu held. Closing events under the
// lock is what makes it safe: no publisher can be mid-send.
func (h *Hub) removeLocked(sub *Subscription) {
	sub.once.Do(func() {
		delete(h.subscribers, sub)
		close(sub.done)
		close(sub.events)
	})
}

// Publish delivers event to every current subscription and returns how
// many accepted it. It never blocks on a subscriber and never fails.
func (h *Hub) Publish(event domain.LiveEvent) (delivered, dropped int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		// Prune subscriptions whose owner went away without Close.
		select {
		case <-sub.gone:
			h.removeLocked(sub)
			continue
		default:
		}

		select {
		case sub.events <- event:
			delivered++
		default:
			sub.dropped.Add(1)
			dropped++
		}
	}
	return delivered, dropped
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subscribers {
		h.removeLocked(sub)
	}
}
