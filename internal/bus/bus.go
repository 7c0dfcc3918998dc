// Package bus is the in-process pub/sub channel between the monitor's
// event producers (file watcher, spark runner) and its push transports
// (SSE, websocket).
package bus

import (
	"strings"
	"sync"
)

const subscriberBuffer = 100

// Event is a message published on the bus.
type Event struct {
	Topic   string
	Payload any
}

// Dashboard event topics. Payloads are dashboard.Event values ready for
// wire encoding.
const (
	TopicTeamUpdated     = "dashboard.team.updated"
	TopicTeamDeleted     = "dashboard.team.deleted"
	TopicTaskUpdated     = "dashboard.task.updated"
	TopicTaskDeleted     = "dashboard.task.deleted"
	TopicMessageReceived = "dashboard.message.received"
)

// Spark event topics.
const (
	TopicSparkStateChanged = "spark.state_changed"
)

// SparkStateChangedEvent is published when a spark run transitions state.
type SparkStateChangedEvent struct {
	RunID     string // run id
	ProjectID string // owning project
	OldStatus string // previous status (e.g. starting)
	NewStatus string // new status (e.g. running)
}

// Subscription is one active subscriber.
type Subscription struct {
	id     int
	prefix string
	ch     chan Event
}

// Ch returns the channel to receive events on.
func (s *Subscription) Ch() <-chan Event {
	return s.ch
}

// Bus is a simple in-process pub/sub message bus with topic prefix
// matching.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int]*Subscription),
	}
}

// Subscribe creates a subscription for events matching the given topic
// prefix. An empty prefix matches all topics. The channel holds 100
// events; slow consumers miss events rather than stall producers.
func (b *Bus) Subscribe(topicPrefix string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		prefix: topicPrefix,
		ch:     make(chan Event, subscriberBuffer),
	}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		close(sub.ch)
	}
}

// Publish sends an event to all matching subscribers. Delivery is
// non-blocking: a full subscriber buffer drops the event for that
// subscriber only.
func (b *Bus) Publish(topic string, payload any) {
	event := Event{
		Topic:   topic,
		Payload: payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.prefix == "" || strings.HasPrefix(topic, sub.prefix) {
			select {
			case sub.ch <- event:
			default:
				// Buffer full, drop for this subscriber.
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
