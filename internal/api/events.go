package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/v4lfind/v4lfind/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for discovery progress and results",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"stream-connected": events.StreamConnectedEvent{},
		"probe-started":    events.ProbeStartedEvent{},
		"candidate":        events.CandidateEvent{},
		"device-found":     events.DeviceFoundEvent{},
		"media-matched":    events.MediaMatchedEvent{},
		"probe-failed":     events.ProbeFailedEvent{},
		"hotplug":          events.HotplugEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		live := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ProbeStartedEvent](s.eventBus, live),
			events.SubscribeToChannel[events.CandidateEvent](s.eventBus, live),
			events.SubscribeToChannel[events.DeviceFoundEvent](s.eventBus, live),
			events.SubscribeToChannel[events.MediaMatchedEvent](s.eventBus, live),
			events.SubscribeToChannel[events.ProbeFailedEvent](s.eventBus, live),
			events.SubscribeToChannel[events.HotplugEvent](s.eventBus, live),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Confirm the stream is live before any discovery pass runs.
		if err := send.Data(events.StreamConnectedEvent{
			Stream:    "events",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-live:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
