package lora

// Event represents an adapter manager lifecycle event.
type Event struct {
	Name      string
	BaseModel string
	AdapterID int64
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
