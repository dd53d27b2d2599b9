//go:build linux

package discovery

import (
	"testing"
	"time"

	"github.com/v4lfind/v4lfind/internal/events"
	"github.com/v4lfind/v4lfind/pkg/linuxav/hotplug"
)

func TestHotplugForward(t *testing.T) {
	bus := events.New()
	received := make(chan events.HotplugEvent, 1)
	defer bus.Subscribe(func(e events.HotplugEvent) { received <- e })()

	bridge := NewHotplugBridge(bus)
	bridge.forward(hotplug.Event{
		Action:    hotplug.ActionAdd,
		Subsystem: hotplug.SubsystemVideo4Linux,
		DevName:   "video0",
	})

	select {
	case e := <-received:
		if e.Path != "/dev/video0" {
			t.Errorf("event path = %s, want /dev/video0", e.Path)
		}
		if e.Action != hotplug.ActionAdd {
			t.Errorf("event action = %s, want add", e.Action)
		}
		if e.Timestamp == "" {
			t.Error("event should carry a timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for hotplug event")
	}
}

func TestHotplugForwardSkipsNodelessEvents(t *testing.T) {
	bus := events.New()
	received := make(chan events.HotplugEvent, 1)
	defer bus.Subscribe(func(e events.HotplugEvent) { received <- e })()

	bridge := NewHotplugBridge(bus)
	bridge.forward(hotplug.Event{
		Action:    hotplug.ActionBind,
		Subsystem: hotplug.SubsystemVideo4Linux,
	})

	select {
	case e := <-received:
		t.Fatalf("unexpected event for nodeless uevent: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHotplugBridgeStartStop(t *testing.T) {
	bridge := NewHotplugBridge(events.New())

	if err := bridge.Start(); err != nil {
		t.Skipf("netlink monitor unavailable: %v", err)
	}
	bridge.Stop()

	// Stop is idempotent once the monitor is gone.
	bridge.Stop()
}
