package service

import (
	"sync"

	"github.com/joeblew999/geo-map/internal/metrics"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 16

// Event represents a map session change.
type Event struct {
	Resource string // e.g. "maps"
	Action   string // "created", "deleted", or a geomap event type
	ID       string // resource ID
	Payload  any
}

// EventBus fans session events out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]func(Event) bool
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]func(Event) bool)}
}

// Publish delivers e to every subscriber whose filter accepts it.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, match := range b.subs {
		if match != nil && !match(e) {
			continue
		}
		select {
		case ch <- e:
		default:
			metrics.EventsDropped.Inc()
		}
	}
}

// Subscribe returns a buffered channel that receives every event.
func (b *EventBus) Subscribe() chan Event {
	return b.subscribe(nil)
}

// SubscribeMap returns a channel that receives only the events of one map
// session.
func (b *EventBus) SubscribeMap(id string) chan Event {
	return b.subscribe(func(e Event) bool {
		return e.Resource == ResourceMaps && e.ID == id
	})
}

func (b *EventBus) subscribe(match func(Event) bool) chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = match
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Subscribers returns the number of open subscriptions.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
