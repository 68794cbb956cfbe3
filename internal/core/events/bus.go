package events

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Event is the contract every domain event satisfies. AggregateID ties the
// event back to the aggregate it belongs to so consumers never have to
// inspect payloads to correlate streams.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	AggregateID() string
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

type Handler func(ctx context.Context, event Event) error

type subscription struct {
	priority int
	seq      int
	handler  Handler
}

// EventBus dispatches events synchronously to subscribers ordered by
// ascending priority; subscribers registered earlier run first within the
// same priority. A failing handler is logged and skipped so one consumer
// can never block the others.
type EventBus struct {
	subscriptions map[string][]subscription
	store         *Store
	logger        *slog.Logger
	mu            sync.RWMutex
	seq           int
}

func NewEventBus(store *Store, logger *slog.Logger) *EventBus {
	return &EventBus{
		subscriptions: make(map[string][]subscription),
		store:         store,
		logger:        logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, priority int, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.seq++
	subs := append(eb.subscriptions[eventType], subscription{
		priority: priority,
		seq:      eb.seq,
		handler:  handler,
	})
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority < subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
	eb.subscriptions[eventType] = subs

	eb.logger.Info("event handler registered",
		"event_type", eventType,
		"priority", priority,
		"total_handlers", len(subs))
}

// Publish appends the event to the store and then runs every subscriber in
// priority order on the calling goroutine. The event is recorded even when
// no subscriber exists for its type.
func (eb *EventBus) Publish(ctx context.Context, event Event) {
	if eb.store != nil {
		eb.store.Append(event)
	}

	eb.mu.RLock()
	subs := make([]subscription, len(eb.subscriptions[event.EventType()]))
	copy(subs, eb.subscriptions[event.EventType()])
	eb.mu.RUnlock()

	if len(subs) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return
	}

	eb.logger.Info("publishing event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"aggregate_id", event.AggregateID(),
		"handlers_count", len(subs))

	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil {
			eb.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"priority", sub.priority,
				"error", err)
		}
	}
}
