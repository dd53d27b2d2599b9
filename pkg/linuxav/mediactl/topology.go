//go:build linux

package mediactl

import (
	"fmt"
	"unsafe"

	"github.com/v4lfind/v4lfind/pkg/linuxav/devnode"
)

// maxInterfaces bounds the interface buffer allocation. Real media
// devices expose at most a few dozen interfaces; a count beyond this is
// a corrupt or hostile response, not a bigger pipeline.
const maxInterfaces = 4096

// fetchTopology reads the interface list of a media device using the
// two-phase MEDIA_IOC_G_TOPOLOGY protocol: a query with no buffer
// attached reports the interface count, then a second query fills a
// buffer of exactly that count.
//
// The kernel may report a different count by the time the second call
// runs (device reconfigured concurrently). The result is always the
// length from the first call; see devnode.QuerySized.
func fetchTopology(fd int) ([]Interface, error) {
	raw, err := devnode.QuerySized(maxInterfaces, func(buf []mediaV2Interface) (uint32, error) {
		topo := mediaV2Topology{}
		if len(buf) > 0 {
			topo.numInterfaces = uint32(len(buf))
			topo.ptrInterfaces = uint64(uintptr(unsafe.Pointer(&buf[0])))
		}
		if err := ioctl(fd, mediaIocGTopology, unsafe.Pointer(&topo)); err != nil {
			return 0, fmt.Errorf("get media topology: %w", err)
		}
		return topo.numInterfaces, nil
	})
	if err != nil {
		return nil, err
	}

	interfaces := make([]Interface, len(raw))
	for i := range raw {
		interfaces[i] = Interface{
			ID:   raw[i].id,
			Kind: interfaceKind(raw[i].intfType),
			Node: devnode.Identity{
				Major: raw[i].devnode.major,
				Minor: raw[i].devnode.minor,
			},
		}
	}
	return interfaces, nil
}

func interfaceKind(intfType uint32) InterfaceKind {
	switch intfType {
	case mediaIntfTV4LVideo:
		return KindVideoNode
	case mediaIntfTV4LSubdev:
		return KindSubdev
	default:
		return KindOther
	}
}
