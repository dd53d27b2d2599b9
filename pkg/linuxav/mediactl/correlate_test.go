//go:build linux

package mediactl

import (
	"errors"
	"log/slog"
	"syscall"
	"testing"

	"github.com/v4lfind/v4lfind/pkg/linuxav/devnode"
)

const targetVideoFd = 42

// fakeMediaFS fakes the kernel seams of a Correlator and accounts for
// every descriptor it hands out.
type fakeMediaFS struct {
	t          *testing.T
	paths      []string
	target     devnode.Identity
	openErr    map[string]error
	infoErr    map[string]error
	topoErr    map[string]error
	topologies map[string][]Interface
	infos      map[string]DeviceInfo

	nextFd  int
	openFds map[int]string
}

func newFakeMediaFS(t *testing.T, target devnode.Identity, paths ...string) *fakeMediaFS {
	t.Helper()
	return &fakeMediaFS{
		t:          t,
		paths:      paths,
		target:     target,
		openErr:    make(map[string]error),
		infoErr:    make(map[string]error),
		topoErr:    make(map[string]error),
		topologies: make(map[string][]Interface),
		infos:      make(map[string]DeviceInfo),
		nextFd:     200,
		openFds:    make(map[int]string),
	}
}

func (f *fakeMediaFS) correlator() *Correlator {
	c := NewCorrelator(WithLogger(slog.Default()))
	c.identity = func(fd int) (devnode.Identity, error) {
		if fd != targetVideoFd {
			f.t.Fatalf("Identity query on unexpected fd %d", fd)
		}
		return f.target, nil
	}
	c.scan = func(root, prefix string) ([]string, error) {
		return f.paths, nil
	}
	c.open = func(path string) (int, error) {
		if err := f.openErr[path]; err != nil {
			return -1, err
		}
		f.nextFd++
		f.openFds[f.nextFd] = path
		return f.nextFd, nil
	}
	c.queryInfo = func(fd int) (DeviceInfo, error) {
		path, ok := f.openFds[fd]
		if !ok {
			f.t.Fatalf("Device info query on closed fd %d", fd)
		}
		if err := f.infoErr[path]; err != nil {
			return DeviceInfo{}, err
		}
		return f.infos[path], nil
	}
	c.topology = func(fd int) ([]Interface, error) {
		path, ok := f.openFds[fd]
		if !ok {
			f.t.Fatalf("Topology fetch on closed fd %d", fd)
		}
		if err := f.topoErr[path]; err != nil {
			return nil, err
		}
		return f.topologies[path], nil
	}
	c.closeFd = func(fd int) error {
		if _, ok := f.openFds[fd]; !ok {
			f.t.Fatalf("Double close of fd %d", fd)
		}
		delete(f.openFds, fd)
		return nil
	}
	return c
}

func (f *fakeMediaFS) assertOnlyOpen(paths ...string) {
	f.t.Helper()
	if len(f.openFds) != len(paths) {
		f.t.Fatalf("Expected %d open fds, got %d: %v", len(paths), len(f.openFds), f.openFds)
	}
	for _, want := range paths {
		found := false
		for _, p := range f.openFds {
			if p == want {
				found = true
			}
		}
		if !found {
			f.t.Errorf("Expected %s to remain open", want)
		}
	}
}

func TestCorrelateMatchesByIdentity(t *testing.T) {
	target := devnode.Identity{Major: 81, Minor: 4}
	fs := newFakeMediaFS(t, target, "/dev/media0", "/dev/media1")

	// media0 exposes video interfaces with other identities plus one
	// non-video interface that happens to carry the target's numbers.
	fs.topologies["/dev/media0"] = []Interface{
		{ID: 1, Kind: KindVideoNode, Node: devnode.Identity{Major: 81, Minor: 0}},
		{ID: 2, Kind: KindOther, Node: target},
	}
	fs.topologies["/dev/media1"] = []Interface{
		{ID: 1, Kind: KindSubdev, Node: devnode.Identity{Major: 81, Minor: 7}},
		{ID: 2, Kind: KindVideoNode, Node: target},
		{ID: 3, Kind: KindVideoNode, Node: devnode.Identity{Major: 81, Minor: 9}},
	}
	fs.infos["/dev/media1"] = DeviceInfo{Driver: "rkvdec", Model: "rkvdec"}

	dev, err := fs.correlator().Correlate(targetVideoFd)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	if dev.Path != "/dev/media1" {
		t.Errorf("Expected /dev/media1, got %s", dev.Path)
	}
	if dev.Info.Driver != "rkvdec" {
		t.Errorf("Expected device info carried on handle, got %+v", dev.Info)
	}
	fs.assertOnlyOpen("/dev/media1")
}

func TestCorrelateNoCandidates(t *testing.T) {
	fs := newFakeMediaFS(t, devnode.Identity{Major: 81, Minor: 4})

	_, err := fs.correlator().Correlate(targetVideoFd)
	if !errors.Is(err, devnode.ErrNoMatch) {
		t.Fatalf("Expected ErrNoMatch, got %v", err)
	}
	fs.assertOnlyOpen()
}

func TestCorrelateNoIdentityMatch(t *testing.T) {
	target := devnode.Identity{Major: 81, Minor: 4}
	fs := newFakeMediaFS(t, target, "/dev/media0")
	fs.topologies["/dev/media0"] = []Interface{
		{ID: 1, Kind: KindVideoNode, Node: devnode.Identity{Major: 81, Minor: 5}},
	}

	_, err := fs.correlator().Correlate(targetVideoFd)
	if !errors.Is(err, devnode.ErrNoMatch) {
		t.Fatalf("Expected ErrNoMatch, got %v", err)
	}
	fs.assertOnlyOpen()
}

func TestCorrelateSoftFailures(t *testing.T) {
	target := devnode.Identity{Major: 81, Minor: 4}
	fs := newFakeMediaFS(t, target, "/dev/media0", "/dev/media1", "/dev/media2", "/dev/media3")
	fs.openErr["/dev/media0"] = syscall.EACCES
	fs.infoErr["/dev/media1"] = syscall.ENOTTY
	// Topology failure covers both the query and the allocation-limit
	// cases; either way the candidate's fd must be closed.
	fs.topoErr["/dev/media2"] = errors.New("reported element count 100000 exceeds limit 4096")
	fs.topologies["/dev/media3"] = []Interface{
		{ID: 1, Kind: KindVideoNode, Node: target},
	}

	dev, err := fs.correlator().Correlate(targetVideoFd)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	if dev.Path != "/dev/media3" {
		t.Errorf("Expected /dev/media3, got %s", dev.Path)
	}
	fs.assertOnlyOpen("/dev/media3")
}

func TestCorrelateIdentityFailureIsFatal(t *testing.T) {
	fs := newFakeMediaFS(t, devnode.Identity{}, "/dev/media0")
	c := fs.correlator()
	c.identity = func(fd int) (devnode.Identity, error) {
		return devnode.Identity{}, syscall.EBADF
	}

	_, err := c.Correlate(targetVideoFd)
	if !errors.Is(err, syscall.EBADF) {
		t.Fatalf("Expected EBADF cause, got %v", err)
	}
	fs.assertOnlyOpen()
}

func TestInterfaceKindMapping(t *testing.T) {
	tests := []struct {
		name     string
		intfType uint32
		want     InterfaceKind
	}{
		{"v4l video", mediaIntfTV4LVideo, KindVideoNode},
		{"v4l subdev", mediaIntfTV4LSubdev, KindSubdev},
		{"dvb frontend", 0x00000101, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interfaceKind(tt.intfType); got != tt.want {
				t.Errorf("interfaceKind(%#x) = %v, want %v", tt.intfType, got, tt.want)
			}
		})
	}
}
