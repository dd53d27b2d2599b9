package events

// Event type constants for kelindar/event.
const (
	TypeProbeStarted uint32 = iota + 1
	TypeCandidate
	TypeDeviceFound
	TypeMediaMatched
	TypeProbeFailed
	TypeHotplug
	TypeLogEntry
	TypeStreamConnected
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProbeStartedEvent is published when a discovery pass begins.
type ProbeStartedEvent struct {
	Root      string `json:"root" example:"/dev" doc:"Device directory being scanned"`
	Prefix    string `json:"prefix" example:"video" doc:"Device name prefix filter"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProbeStartedEvent.
func (e ProbeStartedEvent) Type() uint32 { return TypeProbeStarted }

// CandidateEvent is published for each device node examined during a
// discovery pass, including ones that were skipped or rejected.
type CandidateEvent struct {
	Path      string `json:"path" example:"/dev/video0" doc:"Candidate device node path"`
	Outcome   string `json:"outcome" example:"accepted" doc:"Outcome: accepted, rejected, skipped"`
	Detail    string `json:"detail,omitempty" example:"permission denied" doc:"Skip reason, if any"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CandidateEvent.
func (e CandidateEvent) Type() uint32 { return TypeCandidate }

// DeviceFoundEvent is published when a video device is accepted.
type DeviceFoundEvent struct {
	Path      string `json:"path" example:"/dev/video0" doc:"Accepted video device path"`
	Driver    string `json:"driver" example:"uvcvideo" doc:"Kernel driver name"`
	Card      string `json:"card" example:"HD Webcam" doc:"Device card name"`
	BusInfo   string `json:"bus_info" example:"usb-0000:00:14.0-1" doc:"Bus location"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceFoundEvent.
func (e DeviceFoundEvent) Type() uint32 { return TypeDeviceFound }

// MediaMatchedEvent is published when a media controller node is
// correlated with an accepted video device.
type MediaMatchedEvent struct {
	VideoPath string `json:"video_path" example:"/dev/video0" doc:"Video device path"`
	MediaPath string `json:"media_path" example:"/dev/media0" doc:"Matching media controller path"`
	Driver    string `json:"driver" example:"uvcvideo" doc:"Media device driver name"`
	Model     string `json:"model" example:"HD Webcam" doc:"Media device model"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for MediaMatchedEvent.
func (e MediaMatchedEvent) Type() uint32 { return TypeMediaMatched }

// ProbeFailedEvent is published when a discovery pass ends without an
// accepted device.
type ProbeFailedEvent struct {
	Root      string `json:"root" example:"/dev" doc:"Device directory that was scanned"`
	Prefix    string `json:"prefix" example:"video" doc:"Device name prefix filter"`
	Error     string `json:"error" example:"no matching device" doc:"Failure description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProbeFailedEvent.
func (e ProbeFailedEvent) Type() uint32 { return TypeProbeFailed }

// HotplugEvent is published when a video or media controller node is
// attached to or detached from the system.
type HotplugEvent struct {
	Action    string `json:"action" example:"add" doc:"Kernel uevent action: add, remove, change"`
	Path      string `json:"path" example:"/dev/video0" doc:"Device node path"`
	Subsystem string `json:"subsystem" example:"video4linux" doc:"Kernel subsystem"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for HotplugEvent.
func (e HotplugEvent) Type() uint32 { return TypeHotplug }

// StreamConnectedEvent is the first frame sent on a new event stream
// connection, confirming the stream is live before anything else is
// published.
type StreamConnectedEvent struct {
	Stream    string `json:"stream" example:"events" doc:"Name of the connected stream"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StreamConnectedEvent.
func (e StreamConnectedEvent) Type() uint32 { return TypeStreamConnected }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
