package player

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType tags the payload sent to subscribers.
type EventType string

const (
	EventPlayState     EventType = "play_state_changed"
	EventTrackChanged  EventType = "track_changed"
	EventTimeUpdate    EventType = "time_update"
	EventQueueComplete EventType = "queue_complete"
	EventStatus        EventType = "status"
	EventVolume        EventType = "volume_changed"
	EventSession       EventType = "session_changed"
)

// Event is a single push to the UI layer.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Bus fans events out to any number of subscribers. Slow subscribers drop
// events rather than stall the engine.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (b *Bus) Subscribe() (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New().String()
	ch := make(chan Event, 32)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(typ EventType, data interface{}) {
	ev := Event{Type: typ, Data: data, Timestamp: time.Now().UnixMilli()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
