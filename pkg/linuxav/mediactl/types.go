//go:build linux

package mediactl

import "github.com/v4lfind/v4lfind/pkg/linuxav/devnode"

// DeviceInfo is the decoded MEDIA_IOC_DEVICE_INFO response.
type DeviceInfo struct {
	Driver        string
	Model         string
	Serial        string
	BusInfo       string
	MediaVersion  uint32
	HWRevision    uint32
	DriverVersion uint32
}

// InterfaceKind classifies a topology interface.
type InterfaceKind uint32

// Interface kinds. Anything that is not a V4L video node is reported as
// KindOther; correlation only ever looks at video interfaces.
const (
	KindOther InterfaceKind = iota
	KindVideoNode
	KindSubdev
)

// Interface is one interface record from a media device's topology
// graph. Node is meaningful for devnode-backed kinds (video, subdev).
type Interface struct {
	ID   uint32
	Kind InterfaceKind
	Node devnode.Identity
}

// Device is a matched media controller node. It owns the open
// descriptor from the moment Correlate returns it.
type Device struct {
	Path string
	Fd   int
	Info DeviceInfo
}

// Close releases the device descriptor.
func (d *Device) Close() error {
	return closeFd(d.Fd)
}
