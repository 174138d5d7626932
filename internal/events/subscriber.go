package events

// Message is a raw event payload together with the subject it arrived on.
// RequestID is set for lookup events.
type Message struct {
	Topic     string
	RequestID string
	Data      []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers event messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
