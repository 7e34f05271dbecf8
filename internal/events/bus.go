package events

import (
	"sync"
	"time"

	"wordquest/internal/content"
)

// RewardEvent is published once per newly completed quest
type RewardEvent struct {
	UserID   string
	ModuleID string
	QuestID  string
	Reward   content.Reward
	At       time.Time
}

// RewardHandler receives published reward events
type RewardHandler func(RewardEvent)

// Bus delivers reward events to subscribers. Delivery is synchronous and
// in subscription order, so progress written by a handler is visible as
// soon as Publish returns.
type Bus struct {
	mu       sync.RWMutex
	handlers []RewardHandler
}

// NewBus creates an event bus with no subscribers
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future reward events
func (b *Bus) Subscribe(handler RewardHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to every subscriber
func (b *Bus) Publish(event RewardEvent) {
	b.mu.RLock()
	handlers := make([]RewardHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
