//go:build linux && integration

package hotplug

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestMonitorLiveEvents needs real hardware churn. Run with
// go test -tags=integration -run TestMonitorLiveEvents -v -timeout 60s
// and plug or unplug a camera while it waits.
func TestMonitorLiveEvents(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("NewMonitor: %v", err)
	}
	defer func() { _ = m.Close() }()

	m.AddSubsystemFilter(SubsystemVideo4Linux)
	m.AddSubsystemFilter(SubsystemMedia)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	events := make(chan Event, 10)
	go func() {
		err := m.Run(ctx, events)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			t.Logf("Run: %v", err)
		}
	}()

	t.Log("waiting for a video or media uevent, plug or unplug a camera")

	select {
	case e := <-events:
		t.Logf("event: %s %s node=%s kobj=%s", e.Action, e.Subsystem, e.DevName, e.KObj)
	case <-ctx.Done():
		t.Log("no events arrived, fine on a quiet machine")
	}
}
