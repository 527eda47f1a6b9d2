package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/geohunt/internal/hunt"
)

// Event is the payload published to a mission's SSE subscribers.
type Event struct {
	Type       string         `json:"type"`
	GeofenceID hunt.ID        `json:"geofenceId,omitempty"`
	MediaURL   string         `json:"mediaUrl,omitempty"`
	Target     *hunt.Geofence `json:"target,omitempty"`
	Status     string         `json:"status,omitempty"`
}

func effectEvent(e hunt.Effect) Event {
	return Event{
		Type:       string(e.Kind),
		GeofenceID: e.Geofence,
		MediaURL:   e.MediaURL,
		Target:     e.Target,
	}
}

// Broker is an in-process pub/sub for SSE events, keyed by mission session.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for session.
func (b *Broker) Subscribe(session string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[session] == nil {
		b.subs[session] = make(map[chan []byte]struct{})
	}
	b.subs[session][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(session string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[session], ch)
	if len(b.subs[session]) == 0 {
		delete(b.subs, session)
	}
	b.mu.Unlock()
}

// Publish sends an event to every subscriber of session. Slow subscribers
// miss events rather than block the mission.
func (b *Broker) Publish(session string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[session] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
}

// Subscribers returns the number of live subscriptions for session.
func (b *Broker) Subscribers(session string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[session])
}
