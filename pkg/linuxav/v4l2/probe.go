//go:build linux

package v4l2

import (
	"fmt"
	"log/slog"

	"github.com/v4lfind/v4lfind/pkg/linuxav/devnode"
)

// DefaultRoot is the directory scanned for device nodes.
const DefaultRoot = "/dev"

// DefaultPrefix selects video nodes within the scan root.
const DefaultPrefix = "video"

// Prober scans a device directory for video nodes and returns the first
// one accepted by the caller's acceptance function.
type Prober struct {
	Root   string
	Prefix string

	// OnSkip, when set, observes candidates dropped before reaching
	// the acceptance function because open or the capability query
	// failed.
	OnSkip func(path string, err error)

	logger *slog.Logger

	// Kernel seams, replaced by fakes in tests.
	scan     func(root, prefix string) ([]string, error)
	open     func(path string) (int, error)
	queryCap func(fd int) (Capability, error)
	closeFd  func(fd int) error
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithRoot overrides the scanned directory.
func WithRoot(root string) ProberOption {
	return func(p *Prober) { p.Root = root }
}

// WithLogger sets the logger used for per-candidate progress.
func WithLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) { p.logger = logger }
}

// NewProber creates a Prober scanning DefaultRoot for "video" nodes.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		Root:     DefaultRoot,
		Prefix:   DefaultPrefix,
		logger:   slog.With("component", "linuxav"),
		scan:     devnode.Scan,
		open:     openNode,
		queryCap: queryCapability,
		closeFd:  closeFd,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open opens a single video device node and queries its capability.
// The caller owns the returned descriptor.
func Open(path string) (*Device, error) {
	fd, err := openNode(path)
	if err != nil {
		return nil, fmt.Errorf("open video device %s: %w", path, err)
	}
	cap, err := queryCapability(fd)
	if err != nil {
		closeFd(fd)
		return nil, fmt.Errorf("query capability %s: %w", path, err)
	}
	return &Device{Path: path, Fd: fd, Capability: cap}, nil
}

// Probe walks the video candidates in directory-listing order. Each
// candidate is opened read-write non-blocking and capability-queried;
// failures at either step skip to the next candidate. A queried
// candidate is handed to accept: true stops the scan and transfers
// ownership of the open descriptor to the caller, false closes it and
// continues.
//
// When no candidate is accepted the error wraps devnode.ErrNoMatch; a
// directory that cannot be listed at all surfaces as
// *devnode.DirectoryError.
func (p *Prober) Probe(accept AcceptFunc) (*Device, error) {
	candidates, err := p.scan(p.Root, p.Prefix)
	if err != nil {
		return nil, err
	}

	for _, path := range candidates {
		p.logger.Debug("Probing video device", "path", path)

		fd, err := p.open(path)
		if err != nil {
			p.logger.Debug("Failed to open video device", "path", path, "error", err)
			p.skipped(path, err)
			continue
		}

		cap, err := p.queryCap(fd)
		if err != nil {
			p.logger.Debug("Failed to query device capabilities", "path", path, "error", err)
			p.closeFd(fd)
			p.skipped(path, err)
			continue
		}

		dev := &Device{Path: path, Fd: fd, Capability: cap}
		if accept(dev) {
			p.logger.Info("Using video device", "path", path, "driver", cap.Driver, "card", cap.Card)
			return dev, nil
		}
		p.closeFd(fd)
	}

	return nil, fmt.Errorf("probe %s/%s*: %w", p.Root, p.Prefix, devnode.ErrNoMatch)
}

func (p *Prober) skipped(path string, err error) {
	if p.OnSkip != nil {
		p.OnSkip(path, err)
	}
}
