package event

import "time"

// Topics published by lumber.
const (
	// ClassDefined carries a hierarchy.Class each time the host environment
	// defines a new class/type that may need a logger.
	ClassDefined = "ClassDefined"
)

// Subscriber receives the payload of a published event.
type Subscriber func(any)

// Topic subscription list for a single topic.
type Topic struct {
	timeout     time.Duration // Publish timeout; zero waits for every subscriber.
	subscribers []Subscriber  // Subscription queue.
}
