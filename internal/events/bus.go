// Package events provides the in-process notification bus behind the
// /notifications/stream SSE endpoint.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snapfolio/snapfolio-portal/internal/common"
)

// Type classifies a portal event.
type Type string

const (
	NotificationReceived Type = "NOTIFICATION_RECEIVED"
	SnapshotCreated      Type = "SNAPSHOT_CREATED"
	ScrapChanged         Type = "SCRAP_CHANGED"
	SessionExpired       Type = "SESSION_EXPIRED"
)

// Event is one bus message.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose channel is full has the event dropped, with a warning.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan *Event
	nextID int
	logger *common.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *common.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]chan *Event),
		logger: logger,
	}
}

// Subscribe registers a subscriber with the given channel buffer.
// The returned ID is used to unsubscribe.
func (b *Bus) Subscribe(buffer int) (int, <-chan *Event) {
	if buffer <= 0 {
		buffer = 100
	}
	ch := make(chan *Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers an event to all subscribers without blocking.
func (b *Bus) Publish(eventType Type, message string, data map[string]interface{}) {
	evt := &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Message:   message,
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Warn().Int("subscriber", id).Str("event_type", string(eventType)).Msg("subscriber channel full, dropping event")
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
