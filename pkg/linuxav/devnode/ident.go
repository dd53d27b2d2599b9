//go:build linux

package devnode

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Identity is the (major, minor) pair naming a device node. Two open
// descriptors refer to the same hardware interface exactly when their
// identities are equal; path names carry no correlation meaning.
type Identity struct {
	Major uint32
	Minor uint32
}

func (id Identity) String() string {
	return fmt.Sprintf("%d:%d", id.Major, id.Minor)
}

// FdIdentity resolves the identity of the device node an open descriptor
// refers to. This is the node's st_rdev, not the descriptor's own file
// identity (st_dev), which names the filesystem holding the node instead.
func FdIdentity(fd int) (Identity, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return Identity{}, fmt.Errorf("fstat device node: %w", err)
	}
	rdev := uint64(st.Rdev)
	return Identity{
		Major: unix.Major(rdev),
		Minor: unix.Minor(rdev),
	}, nil
}
