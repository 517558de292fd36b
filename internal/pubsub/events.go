// Package pubsub fans typed events out to any number of subscribers.
// The poller publishes process snapshots through it and the logger publishes
// formatted log lines, so the watch view can follow both.
package pubsub

import (
	"context"
	"time"
)

// EventType tags what happened to produce an event.
type EventType string

const (
	// ObservedEvent carries a successfully fetched status snapshot.
	ObservedEvent EventType = "observed"
	// FailedEvent carries a snapshot whose fetch returned an error.
	FailedEvent EventType = "failed"
	// SettledEvent is published once when a process reaches a terminal status.
	SettledEvent EventType = "settled"
	// LoggedEvent carries a formatted log line.
	LoggedEvent EventType = "logged"
)

// Event is a published payload stamped with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
