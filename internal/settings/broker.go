package settings

import "sync"

// Change describes one settings write.
type Change struct {
	Key   string
	Value string
}

// Broker fans out settings changes to every subscribed store. A write is
// published by the writing store itself, so the writer's own in-memory view
// updates through the same path as every other subscriber — the equivalent
// of a storage event that also fires in the writing tab.
type Broker struct {
	mu   sync.Mutex
	subs []func(Change)
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe registers fn to receive every future change.
func (b *Broker) Subscribe(fn func(Change)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers ch to every subscriber, synchronously and in subscription
// order. Last write wins; there is no conflict resolution beyond ordering.
func (b *Broker) Publish(ch Change) {
	b.mu.Lock()
	subs := make([]func(Change), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ch)
	}
}
