// Package events publishes request lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Routing keys
const (
	RequestSubmitted     = "request.submitted"
	RequestStatusChanged = "request.status_changed"
)

// Event describes a change to one service request
type Event struct {
	Type        string    `json:"type"`
	RequestID   int64     `json:"requestId"`
	TokenNumber string    `json:"tokenNumber"`
	RequestType string    `json:"requestType"`
	Status      string    `json:"status"`
	StudentID   int64     `json:"studentId"`
	WorkerID    *int64    `json:"workerId,omitempty"`
	Remarks     *string   `json:"remarks,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Body encodes the event as the message payload
func (e Event) Body() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
