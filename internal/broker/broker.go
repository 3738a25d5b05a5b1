// Package broker fans collection change notifications out to watch streams.
package broker

import (
	"sync"
)

// Broker delivers "collection changed" signals to subscribers. Each
// subscriber channel holds at most one pending signal: when a subscriber is
// slow, later signals merge into the pending one, and the subscriber reads
// the whole collection again when it catches up.
type Broker struct {
	mu      sync.Mutex
	clients map[string]map[chan int64]struct{}
	closed  bool
}

// New constructs a broker.
func New() *Broker {
	return &Broker{clients: make(map[string]map[chan int64]struct{})}
}

// Subscribe registers a channel receiving the version of every change to
// collection. It returns nil after Close.
func (b *Broker) Subscribe(collection string) chan int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}

	ch := make(chan int64, 1)
	set, ok := b.clients[collection]
	if !ok {
		set = make(map[chan int64]struct{})
		b.clients[collection] = set
	}
	set[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes ch. Calling it twice is safe.
func (b *Broker) Unsubscribe(collection string, ch chan int64) {
	if ch == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.clients[collection]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(b.clients, collection)
	}
	close(ch)
}

// Publish signals every subscriber of collection. It never blocks.
func (b *Broker) Publish(collection string, version int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.clients[collection] {
		select {
		case ch <- version:
		default:
			// Replace the stale pending signal with the newer version.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- version:
			default:
			}
		}
	}
}

// Subscribers returns the number of open subscriptions on collection.
func (b *Broker) Subscribers(collection string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients[collection])
}

// Close closes every subscriber channel so watch streams end, and refuses
// new subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for collection, set := range b.clients {
		for ch := range set {
			close(ch)
		}
		delete(b.clients, collection)
	}
}
