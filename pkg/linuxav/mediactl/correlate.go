//go:build linux

package mediactl

import (
	"fmt"
	"log/slog"

	"github.com/v4lfind/v4lfind/pkg/linuxav/devnode"
)

// DefaultRoot is the directory scanned for device nodes.
const DefaultRoot = "/dev"

// DefaultPrefix selects media controller nodes within the scan root.
const DefaultPrefix = "media"

// Correlator scans a device directory for the media controller whose
// topology references a given video node.
type Correlator struct {
	Root   string
	Prefix string

	logger *slog.Logger

	// Kernel seams, replaced by fakes in tests.
	scan      func(root, prefix string) ([]string, error)
	open      func(path string) (int, error)
	queryInfo func(fd int) (DeviceInfo, error)
	topology  func(fd int) ([]Interface, error)
	identity  func(fd int) (devnode.Identity, error)
	closeFd   func(fd int) error
}

// CorrelatorOption configures a Correlator.
type CorrelatorOption func(*Correlator)

// WithRoot overrides the scanned directory.
func WithRoot(root string) CorrelatorOption {
	return func(c *Correlator) { c.Root = root }
}

// WithLogger sets the logger used for per-candidate progress.
func WithLogger(logger *slog.Logger) CorrelatorOption {
	return func(c *Correlator) { c.logger = logger }
}

// NewCorrelator creates a Correlator scanning DefaultRoot for "media"
// nodes.
func NewCorrelator(opts ...CorrelatorOption) *Correlator {
	c := &Correlator{
		Root:      DefaultRoot,
		Prefix:    DefaultPrefix,
		logger:    slog.With("component", "linuxav"),
		scan:      devnode.Scan,
		open:      openNode,
		queryInfo: queryDeviceInfo,
		topology:  fetchTopology,
		identity:  devnode.FdIdentity,
		closeFd:   closeFd,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correlate finds the media device that exposes the video node behind
// videoFd. The target's node identity is resolved from the descriptor,
// then media candidates are walked in directory-listing order: open,
// device-info query, topology fetch, identity comparison against the
// topology's video interfaces. Any per-candidate failure closes that
// candidate and moves on.
//
// On a match the candidate is returned with ownership of its open
// descriptor; exhaustion wraps devnode.ErrNoMatch.
func (c *Correlator) Correlate(videoFd int) (*Device, error) {
	target, err := c.identity(videoFd)
	if err != nil {
		return nil, fmt.Errorf("resolve video node identity: %w", err)
	}
	c.logger.Debug("Correlating media device", "video_node", target)

	candidates, err := c.scan(c.Root, c.Prefix)
	if err != nil {
		return nil, err
	}

	for _, path := range candidates {
		c.logger.Debug("Probing media device", "path", path)

		fd, err := c.open(path)
		if err != nil {
			c.logger.Debug("Failed to open media device", "path", path, "error", err)
			continue
		}

		info, err := c.queryInfo(fd)
		if err != nil {
			c.logger.Debug("Failed to query media device info", "path", path, "error", err)
			c.closeFd(fd)
			continue
		}

		// The descriptor must be closed on every topology failure,
		// including the allocation-limit case.
		interfaces, err := c.topology(fd)
		if err != nil {
			c.logger.Debug("Failed to fetch media topology", "path", path, "error", err)
			c.closeFd(fd)
			continue
		}

		if matchesTarget(interfaces, target, c.logger) {
			c.logger.Info("Using media device", "path", path, "driver", info.Driver, "model", info.Model)
			return &Device{Path: path, Fd: fd, Info: info}, nil
		}
		c.closeFd(fd)
	}

	return nil, fmt.Errorf("correlate %s/%s* for node %s: %w", c.Root, c.Prefix, target, devnode.ErrNoMatch)
}

// matchesTarget reports whether any video interface in the topology
// refers to the target node identity. Paths and names never count.
func matchesTarget(interfaces []Interface, target devnode.Identity, logger *slog.Logger) bool {
	for _, intf := range interfaces {
		if intf.Kind != KindVideoNode {
			continue
		}
		logger.Debug("Media topology video interface", "node", intf.Node)
		if intf.Node == target {
			return true
		}
	}
	return false
}
