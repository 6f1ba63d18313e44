// Package events is the in-process publish/subscribe channel between the
// sheet controller and the panels that drive it.
package events

import "sync"

// Topic names a stream of payloads.
type Topic string

// Topics published by the panels around the grid.
const (
	// TopicCriteria carries models.Criteria from the type selector, search bar and filter dialog.
	TopicCriteria Topic = "sheet:criteria"

	// TopicFindReplace carries models.FindReplace from the find and replace dialog.
	TopicFindReplace Topic = "sheet:find-replace"
)

// Handler receives a published payload.
type Handler func(payload any)

type subscription struct {
	id    uint64
	topic Topic
	fn    Handler
}

// Bus delivers payloads synchronously, to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for topic.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			kept := make([]subscription, 0, len(b.subs))
			for _, s := range b.subs {
				if s.id != id {
					kept = append(kept, s)
				}
			}
			b.subs = kept
		})
	}
}

// Publish hands payload to every subscriber of topic and returns how many received it.
// Handlers run on the caller's goroutine and may publish or subscribe themselves.
func (b *Bus) Publish(topic Topic, payload any) int {
	b.mu.RLock()
	var targets []Handler
	for _, s := range b.subs {
		if s.topic == topic {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		fn(payload)
	}
	return len(targets)
}
