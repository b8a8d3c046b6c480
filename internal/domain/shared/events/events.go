// Package events defines the facts aggregates record for the outbox.
package events

import (
	"slices"
	"time"
)

// DomainEvent is a fact recorded by an aggregate. EventName doubles as the
// outbox entry name and selects the broker topic.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by bookings, payments and reviews. Events stay
// pending until the command handler drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	return slices.Clone(r.pending)
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
