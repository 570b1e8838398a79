package notify

import (
	"context"
	"sync"
)

// Broker is an in-process pub/sub for match events, keyed by match ID.
// Each subscriber has a 16-event buffer. When a buffer is full the event is
// dropped for that subscriber only and the publishing runner carries on.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given match.
func (b *Broker) Subscribe(matchID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[matchID] == nil {
		b.subs[matchID] = make(map[chan []byte]struct{})
	}
	b.subs[matchID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the match's subscribers.
func (b *Broker) Unsubscribe(matchID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[matchID], ch)
	if len(b.subs[matchID]) == 0 {
		delete(b.subs, matchID)
	}
	b.mu.Unlock()
}

// Subscribers reports how many channels listen on matchID.
func (b *Broker) Subscribers(matchID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[matchID])
}

// Publish sends an event to all subscribers of its match. It never blocks.
func (b *Broker) Publish(_ context.Context, ev Event) error {
	data := ev.Marshal()
	b.mu.RLock()
	for ch := range b.subs[ev.MatchID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
	return nil
}
