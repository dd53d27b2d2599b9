package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/v4lfind/v4lfind/internal/events"
	"github.com/v4lfind/v4lfind/internal/logging"
)

func logEntryEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// registerLogRoutes exposes the log stream over SSE. Each connection
// replays the retained history and then follows live entries off the
// event bus.
func (s *Server) registerLogRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		for _, entry := range logging.GetHistory().Snapshot() {
			if err := send.Data(logEntryEvent(entry)); err != nil {
				return
			}
		}

		// Logs burst, so this channel gets a deeper buffer than the
		// device event stream.
		live := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, live)
		defer unsubscribe()

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
