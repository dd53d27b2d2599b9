//go:build linux

package hotplug

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
)

// uevent builds a kernel uevent payload: the ACTION@KOBJ header followed
// by null-terminated KEY=VALUE pairs.
func uevent(header string, env ...string) []byte {
	buf := []byte(header)
	buf = append(buf, 0)
	for _, kv := range env {
		buf = append(buf, kv...)
		buf = append(buf, 0)
	}
	return buf
}

func TestParseUEventCaptureDevices(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Event
	}{
		{
			name: "usb webcam attach",
			data: uevent("add@/devices/pci0000:00/0000:00:14.0/usb1/1-3/1-3:1.0/video4linux/video0",
				"ACTION=add",
				"DEVPATH=/devices/pci0000:00/0000:00:14.0/usb1/1-3/1-3:1.0/video4linux/video0",
				"SUBSYSTEM=video4linux",
				"DEVNAME=video0",
				"MAJOR=81",
				"MINOR=0",
				"SEQNUM=4711"),
			want: Event{
				Action:    ActionAdd,
				KObj:      "/devices/pci0000:00/0000:00:14.0/usb1/1-3/1-3:1.0/video4linux/video0",
				Subsystem: SubsystemVideo4Linux,
				DevName:   "video0",
				DevPath:   "/devices/pci0000:00/0000:00:14.0/usb1/1-3/1-3:1.0/video4linux/video0",
			},
		},
		{
			name: "media controller detach",
			data: uevent("remove@/devices/platform/soc/media0",
				"SUBSYSTEM=media",
				"DEVNAME=media0",
				"DEVPATH=/devices/platform/soc/media0"),
			want: Event{
				Action:    ActionRemove,
				KObj:      "/devices/platform/soc/media0",
				Subsystem: SubsystemMedia,
				DevName:   "media0",
				DevPath:   "/devices/platform/soc/media0",
			},
		},
		{
			name: "change without device node",
			data: uevent("change@/devices/virtual/dvb/dvb0.frontend0",
				"SUBSYSTEM=dvb",
				"DEVTYPE=dvb_frontend"),
			want: Event{
				Action:    ActionChange,
				KObj:      "/devices/virtual/dvb/dvb0.frontend0",
				Subsystem: "dvb",
				DevType:   "dvb_frontend",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUEvent(tt.data)
			if got == nil {
				t.Fatal("ParseUEvent returned nil")
			}
			if got.Action != tt.want.Action || got.KObj != tt.want.KObj {
				t.Errorf("header = %s@%s, want %s@%s", got.Action, got.KObj, tt.want.Action, tt.want.KObj)
			}
			if got.Subsystem != tt.want.Subsystem {
				t.Errorf("Subsystem = %q, want %q", got.Subsystem, tt.want.Subsystem)
			}
			if got.DevName != tt.want.DevName {
				t.Errorf("DevName = %q, want %q", got.DevName, tt.want.DevName)
			}
			if got.DevType != tt.want.DevType {
				t.Errorf("DevType = %q, want %q", got.DevType, tt.want.DevType)
			}
			if got.DevPath != tt.want.DevPath {
				t.Errorf("DevPath = %q, want %q", got.DevPath, tt.want.DevPath)
			}
		})
	}
}

func TestParseUEventEnvCapture(t *testing.T) {
	data := uevent("add@/devices/usb/1-3/video4linux/video2",
		"SUBSYSTEM=video4linux",
		"DEVNAME=video2",
		"ID_V4L_PRODUCT=HD Webcam",
		"ID_PATH=pci-0000:00:14.0-usb-0:3:1.0",
		"EMPTY=",
		"ID_SERIAL=Vendor_HD_Webcam_0x1234=rev2")

	e := ParseUEvent(data)
	if e == nil {
		t.Fatal("ParseUEvent returned nil")
	}
	if e.Env["ID_V4L_PRODUCT"] != "HD Webcam" {
		t.Errorf("ID_V4L_PRODUCT = %q", e.Env["ID_V4L_PRODUCT"])
	}
	if v, ok := e.Env["EMPTY"]; !ok || v != "" {
		t.Errorf("empty value not preserved: %q, %v", v, ok)
	}
	// Only the first = separates key from value.
	if e.Env["ID_SERIAL"] != "Vendor_HD_Webcam_0x1234=rev2" {
		t.Errorf("ID_SERIAL = %q", e.Env["ID_SERIAL"])
	}
	if len(e.Env) != 6 {
		t.Errorf("len(Env) = %d, want 6", len(e.Env))
	}
}

func TestParseUEventRejectsGarbage(t *testing.T) {
	for _, tt := range []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no separator", []byte("add/devices/video0\x00")},
		{"missing action", []byte("@/devices/video0\x00")},
		{"nulls only", []byte{0, 0, 0}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if e := ParseUEvent(tt.data); e != nil {
				t.Errorf("expected nil, got %+v", e)
			}
		})
	}
}

func TestParseUEventToleratesNoise(t *testing.T) {
	// Consecutive nulls and binary values must not derail the parse.
	data := []byte("add@/devices/video4linux/video1\x00\x00\x00SUBSYSTEM=video4linux\x00RAW=\xff\xfe\x00")
	e := ParseUEvent(data)
	if e == nil {
		t.Fatal("ParseUEvent returned nil")
	}
	if e.Subsystem != SubsystemVideo4Linux {
		t.Errorf("Subsystem = %q", e.Subsystem)
	}
	if e.Env["RAW"] != "\xff\xfe" {
		t.Errorf("RAW = %q", e.Env["RAW"])
	}
}

func TestParseUEventSkipsUdevHeader(t *testing.T) {
	// udevd rebroadcasts carry a binary "libudev" prefix before the
	// ACTION@KOBJ header.
	header := append([]byte("libudev\x00"), []byte("\xfe\xed\xca\xfe\x28\x01\x02\x03\x04\x05\x06\x07\x08\x09\x0a\x0b\x0c\x0d\x0e\x0f\x10\x11\x12\x13")...)
	header = append(header, 0)
	data := append(header,
		uevent("add@/devices/video4linux/video0", "SUBSYSTEM=video4linux", "DEVNAME=video0")...)

	e := ParseUEvent(data)
	if e == nil {
		t.Fatal("ParseUEvent returned nil for udev-wrapped payload")
	}
	if e.Action != ActionAdd || e.DevName != "video0" {
		t.Errorf("parsed %s/%s, want add/video0", e.Action, e.DevName)
	}
}

func TestEventDeviceNode(t *testing.T) {
	for _, tt := range []struct {
		name    string
		devName string
		want    string
	}{
		{"bare name", "video0", "/dev/video0"},
		{"already absolute", "/dev/media1", "/dev/media1"},
		{"no node", "", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{DevName: tt.devName}
			if got := e.DeviceNode(); got != tt.want {
				t.Errorf("DeviceNode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// newTestMonitor opens a netlink monitor and closes it with the test.
// Environments that deny AF_NETLINK uevent sockets skip.
func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	m, err := NewMonitor()
	if err != nil {
		if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
			t.Skipf("netlink uevent socket unavailable: %v", err)
		}
		t.Fatalf("NewMonitor: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMonitorSocket(t *testing.T) {
	m := newTestMonitor(t)
	if m.fd <= 0 {
		t.Errorf("fd = %d, want a valid descriptor", m.fd)
	}
}

func TestMonitorCloseTwice(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
			t.Skipf("netlink uevent socket unavailable: %v", err)
		}
		t.Fatalf("NewMonitor: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := m.Close(); err == nil {
		t.Error("second Close should report the stale descriptor")
	}
}

func TestMonitorSubsystemFilters(t *testing.T) {
	m := newTestMonitor(t)

	// Concurrent registration must be safe and idempotent.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				m.AddSubsystemFilter(SubsystemVideo4Linux)
				m.AddSubsystemFilter(SubsystemMedia)
			}
		}()
	}
	wg.Wait()

	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) != 2 {
		t.Errorf("len(filters) = %d, want 2", len(m.filters))
	}
	for _, sub := range []string{SubsystemVideo4Linux, SubsystemMedia} {
		if _, ok := m.filters[sub]; !ok {
			t.Errorf("filter %q missing", sub)
		}
	}
}

func TestMonitorRunHonorsCancel(t *testing.T) {
	m := newTestMonitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan Event, 1)
	if err := m.Run(ctx, events); !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if _, open := <-events; open {
		t.Error("events channel left open after Run returned")
	}
}
