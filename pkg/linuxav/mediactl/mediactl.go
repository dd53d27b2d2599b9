//go:build linux

// Package mediactl provides pure Go bindings to the Linux media
// controller API, used to locate the media device that exposes a given
// video node through its interface topology.
//
// Correlation is keyed on device-node identity (major, minor). A media
// device owns a video node exactly when its topology contains a V4L
// video interface whose devnode identity equals the video descriptor's.
package mediactl

import (
	"syscall"
	"unsafe"
)

// Compile-time struct size assertions against the kernel ABI.
var (
	_ [256]byte = [unsafe.Sizeof(mediaDeviceInfo{})]byte{}
	_ [72]byte  = [unsafe.Sizeof(mediaV2Topology{})]byte{}
	_ [112]byte = [unsafe.Sizeof(mediaV2Interface{})]byte{}
)

// Media controller ioctls from linux/media.h. All request payloads use
// fixed-width fields and __u64 pointers, so the values are
// architecture-independent.
const (
	mediaIocDeviceInfo = 0xc1007c00 // MEDIA_IOC_DEVICE_INFO
	mediaIocGTopology  = 0xc0487c04 // MEDIA_IOC_G_TOPOLOGY
)

// Interface type constants from linux/media.h.
const (
	mediaIntfTV4LVideo  = 0x00000200 // MEDIA_INTF_T_V4L_VIDEO
	mediaIntfTV4LSubdev = 0x00000203 // MEDIA_INTF_T_V4L_SUBDEV
)

// mediaDeviceInfo mirrors struct media_device_info (256 bytes).
type mediaDeviceInfo struct {
	driver        [16]byte
	model         [32]byte
	serial        [40]byte
	busInfo       [32]byte
	mediaVersion  uint32
	hwRevision    uint32
	driverVersion uint32
	reserved      [31]uint32
}

// mediaV2IntfDevnode mirrors struct media_v2_intf_devnode.
type mediaV2IntfDevnode struct {
	major uint32
	minor uint32
}

// mediaV2Interface mirrors struct media_v2_interface (112 bytes). The
// trailing padding covers the rest of the 64-byte union with raw[16].
type mediaV2Interface struct {
	id       uint32
	intfType uint32
	flags    uint32
	reserved [9]uint32
	devnode  mediaV2IntfDevnode
	_        [56]byte
}

// mediaV2Topology mirrors struct media_v2_topology (72 bytes). Only the
// interface graph is requested; entities, pads and links stay zero.
type mediaV2Topology struct {
	topologyVersion uint64
	numEntities     uint32
	reserved1       uint32
	ptrEntities     uint64
	numInterfaces   uint32
	reserved2       uint32
	ptrInterfaces   uint64
	numPads         uint32
	reserved3       uint32
	ptrPads         uint64
	numLinks        uint32
	reserved4       uint32
	ptrLinks        uint64
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// openNode opens a media node read-write. Media controller queries are
// plain request/response calls; non-blocking mode is not needed here.
func openNode(path string) (int, error) {
	return syscall.Open(path, syscall.O_RDWR, 0)
}

func closeFd(fd int) error {
	return syscall.Close(fd)
}

// queryDeviceInfo issues MEDIA_IOC_DEVICE_INFO against an open descriptor.
func queryDeviceInfo(fd int) (DeviceInfo, error) {
	raw := mediaDeviceInfo{}
	if err := ioctl(fd, mediaIocDeviceInfo, unsafe.Pointer(&raw)); err != nil {
		return DeviceInfo{}, err
	}
	return DeviceInfo{
		Driver:        cstr(raw.driver[:]),
		Model:         cstr(raw.model[:]),
		Serial:        cstr(raw.serial[:]),
		BusInfo:       cstr(raw.busInfo[:]),
		MediaVersion:  raw.mediaVersion,
		HWRevision:    raw.hwRevision,
		DriverVersion: raw.driverVersion,
	}, nil
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
