package events

import (
	"sync"
)

// Store is an in-memory append-only log of published events. It exists for
// observability and tests; durable state lives in the database.
type Store struct {
	mu     sync.RWMutex
	events []Event
}

func NewStore() *Store {
	return &Store{events: make([]Event, 0)}
}

func (s *Store) Append(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// All returns a snapshot copy so iteration never races with appends.
func (s *Store) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) ForAggregate(aggregateID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.AggregateID() == aggregateID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) ByType(eventType string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
