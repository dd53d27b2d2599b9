//go:build linux

package v4l2

// Capability is the decoded VIDIOC_QUERYCAP response for a video node.
type Capability struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
}

// Effective returns the capability word that describes this particular
// node: device_caps when the driver reports per-node capabilities,
// otherwise the driver-wide capabilities field.
func (c Capability) Effective() uint32 {
	if c.Capabilities&CapDeviceCaps != 0 {
		return c.DeviceCaps
	}
	return c.Capabilities
}

// Has reports whether every capability bit in mask is set in the
// effective capability word.
func (c Capability) Has(mask uint32) bool {
	return c.Effective()&mask == mask
}

// Capability flags from linux/videodev2.h.
const (
	CapVideoCapture       = 0x00000001
	CapVideoOutput        = 0x00000002
	CapVideoCaptureMplane = 0x00001000
	CapVideoOutputMplane  = 0x00002000
	CapVideoM2M           = 0x00008000
	CapVideoM2MMplane     = 0x00004000
	CapReadWrite          = 0x01000000
	CapStreaming          = 0x04000000
	CapMetaCapture        = 0x00800000
	CapIOMC               = 0x20000000
	CapDeviceCaps         = 0x80000000
)

// Device is an accepted video node. It owns the open descriptor from
// the moment Probe returns it; the library never closes it again.
type Device struct {
	Path       string
	Fd         int
	Capability Capability
}

// Close releases the device descriptor.
func (d *Device) Close() error {
	return closeFd(d.Fd)
}

// AcceptFunc decides whether a successfully queried candidate is the
// device the caller is looking for. It is invoked once per candidate,
// synchronously, and must not retain the candidate unless it returns
// true: a rejected candidate's descriptor is closed as soon as the call
// returns.
type AcceptFunc func(dev *Device) bool

// RequireCaps returns an acceptance function matching any device whose
// effective capabilities include every bit in mask.
func RequireCaps(mask uint32) AcceptFunc {
	return func(dev *Device) bool {
		return dev.Capability.Has(mask)
	}
}

// RequireM2M matches memory-to-memory devices (stateless/stateful codec
// hardware), in either single-planar or multi-planar form.
func RequireM2M() AcceptFunc {
	return func(dev *Device) bool {
		caps := dev.Capability.Effective()
		return caps&(CapVideoM2M|CapVideoM2MMplane) != 0
	}
}
