//go:build linux

package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/v4lfind/v4lfind/internal/events"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/pkg/linuxav/hotplug"
)

// HotplugBridge forwards kernel attach and detach events for video and
// media controller nodes onto the event bus.
type HotplugBridge struct {
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time

	monitor *hotplug.Monitor
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHotplugBridge creates a bridge publishing to the given bus.
func NewHotplugBridge(bus *events.Bus) *HotplugBridge {
	return &HotplugBridge{
		bus:    bus,
		logger: logging.GetLogger("discovery"),
		now:    time.Now,
	}
}

// Start opens the netlink monitor and begins forwarding events.
func (b *HotplugBridge) Start() error {
	monitor, err := hotplug.NewMonitor()
	if err != nil {
		return fmt.Errorf("create hotplug monitor: %w", err)
	}

	monitor.AddSubsystemFilter(hotplug.SubsystemVideo4Linux)
	monitor.AddSubsystemFilter(hotplug.SubsystemMedia)

	ctx, cancel := context.WithCancel(context.Background())
	b.monitor = monitor
	b.cancel = cancel
	b.done = make(chan struct{})

	ch := make(chan hotplug.Event, 16)

	go func() {
		if runErr := monitor.Run(ctx, ch); runErr != nil && ctx.Err() == nil {
			b.logger.Error("Hotplug monitor stopped", "error", runErr)
		}
	}()

	go func() {
		defer close(b.done)
		for ev := range ch {
			b.forward(ev)
		}
	}()

	b.logger.Info("Hotplug monitoring started")
	return nil
}

// Stop cancels the monitor and waits for the forwarding loop to drain.
func (b *HotplugBridge) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
	if closeErr := b.monitor.Close(); closeErr != nil {
		b.logger.Warn("Error closing hotplug monitor", "error", closeErr)
	}
	b.cancel = nil
}

func (b *HotplugBridge) forward(ev hotplug.Event) {
	node := ev.DeviceNode()
	if node == "" {
		// Events without a device node, e.g. bind/unbind on the
		// parent USB interface, carry nothing a consumer can open.
		return
	}

	b.logger.Debug("Device hotplug event",
		"action", ev.Action,
		"subsystem", ev.Subsystem,
		"path", node,
	)

	if b.bus != nil {
		b.bus.Publish(events.HotplugEvent{
			Action:    ev.Action,
			Path:      node,
			Subsystem: ev.Subsystem,
			Timestamp: b.now().UTC().Format(time.RFC3339),
		})
	}
}
