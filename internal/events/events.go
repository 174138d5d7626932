package events

import (
	"context"
	"time"
)

const (
	TopicPrefix = "configstore"

	// Lookup events
	TopicLookupServed = "configstore.lookup.served"
	TopicLookupFailed = "configstore.lookup.failed"

	// Fixture events (emitted while provisioning contract fixtures)
	TopicFixtureSeeded  = "configstore.fixture.seeded"
	TopicFixtureRemoved = "configstore.fixture.removed"

	// TopicAll matches every configstore event.
	TopicAll = TopicPrefix + ".>"
)

// LookupServed is emitted after a lookup resolved to a record.
type LookupServed struct {
	RequestID string        `json:"request_id,omitempty"`
	Transport string        `json:"transport"`
	Type      string        `json:"type"`
	Data      string        `json:"data"`
	Duration  time.Duration `json:"duration_ns"`
}

// LookupFailed is emitted after a lookup produced one of the client errors.
type LookupFailed struct {
	RequestID string        `json:"request_id,omitempty"`
	Transport string        `json:"transport"`
	Type      string        `json:"type,omitempty"`
	Data      string        `json:"data,omitempty"`
	Error     string        `json:"error"`
	Duration  time.Duration `json:"duration_ns"`
}

// FixtureSeeded is emitted for each fixture a contract session provisions.
// Inserted is false when the row already existed.
type FixtureSeeded struct {
	Session  string `json:"session"`
	Type     string `json:"type"`
	Data     string `json:"data"`
	Inserted bool   `json:"inserted"`
}

// FixtureRemoved is emitted for each fixture a contract session deletes.
type FixtureRemoved struct {
	Session string `json:"session"`
	Type    string `json:"type"`
	Data    string `json:"data"`
	Existed bool   `json:"existed"`
}

func (e LookupServed) requestID() string { return e.RequestID }
func (e LookupFailed) requestID() string { return e.RequestID }

// requestScoped events are tagged with the ID of the request that caused them.
type requestScoped interface {
	requestID() string
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher discards every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }
