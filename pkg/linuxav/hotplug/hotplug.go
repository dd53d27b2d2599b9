//go:build linux

// Package hotplug watches kernel uevents over netlink, with no cgo and
// no udev dependency, so attach and detach of video and media
// controller nodes can be observed as they happen.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"syscall"
)

// Uevent actions as the kernel spells them.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionChange  = "change"
	ActionMove    = "move"
	ActionBind    = "bind"
	ActionUnbind  = "unbind"
	ActionOnline  = "online"
	ActionOffline = "offline"
)

// Subsystems carrying the device nodes this project cares about.
const (
	SubsystemVideo4Linux = "video4linux"
	SubsystemMedia       = "media"
)

// NETLINK_KOBJECT_UEVENT, missing from the syscall package.
const netlinkKobjectUEvent = 15

// Event is one decoded kernel uevent.
type Event struct {
	Action    string // add, remove, change, ...
	KObj      string // kernel object path from the header
	Subsystem string // video4linux, media, ...
	DevType   string
	DevName   string            // node name, e.g. video0
	DevPath   string            // sysfs path
	Env       map[string]string // every KEY=VALUE pair as received
}

// DeviceNode returns the /dev path for the event's node, or "" when the
// event carries none.
func (e *Event) DeviceNode() string {
	switch {
	case e.DevName == "":
		return ""
	case strings.HasPrefix(e.DevName, "/"):
		return e.DevName
	}
	return "/dev/" + e.DevName
}

// Monitor is a netlink socket subscribed to the kernel uevent broadcast
// group.
type Monitor struct {
	fd int

	filtersMu sync.RWMutex
	filters   map[string]struct{}
}

// NewMonitor opens the netlink socket and joins the kernel broadcast
// group. Close releases it.
func NewMonitor() (*Monitor, error) {
	fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_DGRAM|syscall.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}

	// Group 1 is the raw kernel broadcast. udevd's processed events go
	// to group 2 and are not subscribed here.
	err = syscall.Bind(fd, &syscall.SockaddrNetlink{
		Family: syscall.AF_NETLINK,
		Groups: 1,
	})
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}

	return &Monitor{fd: fd, filters: make(map[string]struct{})}, nil
}

// AddSubsystemFilter restricts Run to events from the given subsystem.
// Filters accumulate; with none set every event passes. Safe for
// concurrent use.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.filtersMu.Lock()
	m.filters[subsystem] = struct{}{}
	m.filtersMu.Unlock()
}

func (m *Monitor) wanted(subsystem string) bool {
	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	_, ok := m.filters[subsystem]
	return ok
}

// Close releases the netlink socket.
func (m *Monitor) Close() error {
	return syscall.Close(m.fd)
}

// Run reads uevents and delivers the ones passing the subsystem filter
// to events. It blocks until ctx is cancelled or the socket fails, and
// closes events on the way out.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	// A one second receive timeout bounds how long a cancelled context
	// goes unnoticed while the socket is idle.
	tv := syscall.Timeval{Sec: 1}
	buf := make([]byte, 8192)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := syscall.SetsockoptTimeval(m.fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
			return err
		}

		n, _, err := syscall.Recvfrom(m.fd, buf, 0)
		switch {
		case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EWOULDBLOCK), errors.Is(err, syscall.EINTR):
			continue
		case err != nil:
			return err
		case n == 0:
			continue
		}

		event := ParseUEvent(buf[:n])
		if event == nil || !m.wanted(event.Subsystem) {
			continue
		}

		select {
		case events <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseUEvent decodes a raw uevent payload, laid out as an ACTION@KOBJ
// header followed by null-terminated KEY=VALUE pairs. Payloads that
// carry udevd's binary "libudev" prefix are unwrapped first. Returns
// nil for anything that does not look like a uevent.
func ParseUEvent(data []byte) *Event {
	data = stripUdevHeader(data)

	parts := bytes.Split(data, []byte{0})
	if len(parts) == 0 || len(parts[0]) == 0 {
		return nil
	}

	header := string(parts[0])
	at := strings.IndexByte(header, '@')
	if at < 1 {
		return nil
	}

	event := &Event{
		Action: header[:at],
		KObj:   header[at+1:],
		Env:    make(map[string]string),
	}

	for _, part := range parts[1:] {
		kv := string(part)
		eq := strings.IndexByte(kv, '=')
		if eq < 1 {
			continue
		}
		key, value := kv[:eq], kv[eq+1:]
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "DEVPATH":
			event.DevPath = value
		}
	}

	return event
}

// stripUdevHeader skips the binary header udevd prepends when it
// rebroadcasts events. The payload proper starts at the first null
// followed shortly by an ACTION@KOBJ header.
func stripUdevHeader(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("libudev")) {
		return data
	}
	for i := 0; i < len(data)-1; i++ {
		if data[i] != 0 {
			continue
		}
		rest := data[i+1:]
		if at := bytes.IndexByte(rest, '@'); at > 0 && at < 20 {
			return rest
		}
	}
	return data
}
