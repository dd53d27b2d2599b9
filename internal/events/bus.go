package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(DeviceFoundEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the concrete type, so the generic
	// Publish needs a type switch to recover it from the interface.
	switch e := ev.(type) {
	case ProbeStartedEvent:
		event.Publish(b.dispatcher, e)
	case CandidateEvent:
		event.Publish(b.dispatcher, e)
	case DeviceFoundEvent:
		event.Publish(b.dispatcher, e)
	case MediaMatchedEvent:
		event.Publish(b.dispatcher, e)
	case ProbeFailedEvent:
		event.Publish(b.dispatcher, e)
	case HotplugEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	case StreamConnectedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e DeviceFoundEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ProbeStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CandidateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceFoundEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(MediaMatchedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProbeFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(HotplugEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StreamConnectedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// No-op unsubscribe for unrecognized handler types.
		return func() {}
	}
}
