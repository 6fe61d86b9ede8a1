// Package queue defines the work-queue contracts the webhook ingestor and
// event processor are written against. Delivery is at-least-once: consumers
// must tolerate redelivery, relying on downstream deduplication by
// external id.
package queue

import "context"

// Message is one queued webhook delivery. Body is the raw webhook JSON;
// EventType carries the event-type string as a message attribute for
// filtering and observability.
type Message struct {
	ID           string
	Body         []byte
	EventType    string
	ReceiveCount int
}

// Queue is a point-to-point message queue with explicit acknowledgement.
// A message stays on the queue until Delete is called for it; a received but
// undeleted message becomes visible again for redelivery.
type Queue interface {
	// Send enqueues a message.
	Send(ctx context.Context, msg Message) error

	// Receive returns up to max visible messages, marking them in flight.
	// It returns an empty slice when nothing is available.
	Receive(ctx context.Context, max int) ([]Message, error)

	// Delete acknowledges a message, removing it permanently.
	Delete(ctx context.Context, id string) error
}

// Handler processes one message. A non-nil error fails the message so the
// queue redelivers or dead-letters it; the handler must not retry
// internally.
type Handler func(ctx context.Context, msg Message) error

// Consumer drives a Handler from a queue.
type Consumer interface {
	// Start begins consuming messages. It returns once workers are running.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming and waits for in-flight messages to complete.
	Stop(ctx context.Context) error
}
