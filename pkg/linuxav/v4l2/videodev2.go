//go:build linux

package v4l2

import (
	"bytes"
	"unsafe"
)

// Compile-time struct size assertion. Builds fail if the layout drifts
// from what the kernel expects.
var _ [104]byte = [unsafe.Sizeof(v4l2Capability{})]byte{}

// VIDIOC_QUERYCAP: _IOR('V', 0, struct v4l2_capability). The struct has
// no pointer or long fields, so the request value is the same on every
// architecture.
const vidiocQuerycap = 0x80685600

// v4l2Capability mirrors struct v4l2_capability (104 bytes).
type v4l2Capability struct {
	driver       [16]byte  // offset 0
	card         [32]byte  // offset 16
	busInfo      [32]byte  // offset 48
	version      uint32    // offset 80
	capabilities uint32    // offset 84
	deviceCaps   uint32    // offset 88
	reserved     [3]uint32 // offset 92
}

// queryCapability issues VIDIOC_QUERYCAP against an open descriptor.
func queryCapability(fd int) (Capability, error) {
	raw := v4l2Capability{}
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&raw)); err != nil {
		return Capability{}, err
	}
	return Capability{
		Driver:       cstr(raw.driver[:]),
		Card:         cstr(raw.card[:]),
		BusInfo:      cstr(raw.busInfo[:]),
		Version:      raw.version,
		Capabilities: raw.capabilities,
		DeviceCaps:   raw.deviceCaps,
	}, nil
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
