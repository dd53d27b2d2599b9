// Package discovery orchestrates video device probing and media
// controller correlation, publishing progress on the event bus and
// recording Prometheus metrics.
package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/v4lfind/v4lfind/internal/events"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/internal/metrics"
	"github.com/v4lfind/v4lfind/pkg/linuxav/devnode"
	"github.com/v4lfind/v4lfind/pkg/linuxav/mediactl"
	"github.com/v4lfind/v4lfind/pkg/linuxav/v4l2"
)

// VideoInfo describes a video device node without holding it open.
type VideoInfo struct {
	Path         string `json:"path" example:"/dev/video0" doc:"Device node path"`
	Driver       string `json:"driver" example:"uvcvideo" doc:"Kernel driver name"`
	Card         string `json:"card" example:"HD Webcam" doc:"Device card name"`
	BusInfo      string `json:"bus_info" example:"usb-0000:00:14.0-1" doc:"Bus location"`
	Version      uint32 `json:"version" doc:"Kernel driver version"`
	Capabilities uint32 `json:"capabilities" doc:"Capability flags of the physical device"`
	DeviceCaps   uint32 `json:"device_caps" doc:"Capability flags of this node, when reported"`
}

// MediaInfo describes a media controller node correlated with a video
// device.
type MediaInfo struct {
	Path          string `json:"path" example:"/dev/media0" doc:"Media controller node path"`
	Driver        string `json:"driver" example:"uvcvideo" doc:"Media device driver name"`
	Model         string `json:"model" example:"HD Webcam" doc:"Media device model"`
	Serial        string `json:"serial,omitempty" doc:"Device serial, when reported"`
	BusInfo       string `json:"bus_info" example:"usb-0000:00:14.0-1" doc:"Bus location"`
	MediaVersion  uint32 `json:"media_version" doc:"Media controller API version"`
	DriverVersion uint32 `json:"driver_version" doc:"Media driver version"`
}

// Result is the outcome of a successful discovery pass.
type Result struct {
	Video VideoInfo  `json:"video" doc:"Accepted video device"`
	Media *MediaInfo `json:"media,omitempty" doc:"Correlated media controller node, if any"`
}

// Service runs discovery passes over the video and media device
// directories.
type Service struct {
	prober     *v4l2.Prober
	correlator *mediactl.Correlator
	bus        *events.Bus
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithVideoRoot overrides the directory scanned for video nodes.
func WithVideoRoot(root string) Option {
	return func(s *Service) { s.prober.Root = root }
}

// WithMediaRoot overrides the directory scanned for media nodes.
func WithMediaRoot(root string) Option {
	return func(s *Service) { s.correlator.Root = root }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
		s.prober = v4l2.NewProber(v4l2.WithRoot(s.prober.Root), v4l2.WithLogger(logger))
		s.correlator = mediactl.NewCorrelator(mediactl.WithRoot(s.correlator.Root), mediactl.WithLogger(logger))
	}
}

// NewService creates a discovery service publishing to bus. A nil bus
// disables event publishing.
func NewService(bus *events.Bus, opts ...Option) *Service {
	logger := logging.GetLogger("discovery")
	s := &Service{
		prober:     v4l2.NewProber(v4l2.WithLogger(logger)),
		correlator: mediactl.NewCorrelator(mediactl.WithLogger(logger)),
		bus:        bus,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Candidates the prober drops before the acceptance function runs
	// (open or capability query failure) are invisible to the accept
	// callback, so they are surfaced through this seam instead.
	s.prober.OnSkip = func(path string, err error) {
		metrics.RecordCandidate(metrics.OutcomeSkipped)
		s.publish(events.CandidateEvent{
			Path:      path,
			Outcome:   metrics.OutcomeSkipped,
			Detail:    err.Error(),
			Timestamp: s.timestamp(),
		})
	}
	return s
}

// List enumerates every video node in the scan directory that answers a
// capability query. Nodes that cannot be opened or queried are skipped.
func (s *Service) List() ([]VideoInfo, error) {
	var infos []VideoInfo
	_, err := s.prober.Probe(func(dev *v4l2.Device) bool {
		infos = append(infos, videoInfo(dev))
		return false
	})
	// The collecting predicate rejects everything, so an exhausted scan
	// is the success case here.
	if err != nil && !errors.Is(err, devnode.ErrNoMatch) {
		return nil, err
	}
	return infos, nil
}

// Describe opens a single video node and reports its capability.
func (s *Service) Describe(path string) (VideoInfo, error) {
	dev, err := v4l2.Open(path)
	if err != nil {
		return VideoInfo{}, err
	}
	defer dev.Close()
	return videoInfo(dev), nil
}

// Discover runs a discovery pass: the first video node accepted by
// accept wins, and the media device directory is then searched for a
// node whose topology references the winner. A missing media match is
// not an error; Result.Media is nil in that case.
func (s *Service) Discover(accept v4l2.AcceptFunc) (*Result, error) {
	start := s.now()
	s.publish(events.ProbeStartedEvent{
		Root:      s.prober.Root,
		Prefix:    s.prober.Prefix,
		Timestamp: s.timestamp(),
	})

	dev, err := s.prober.Probe(func(d *v4l2.Device) bool {
		ok := accept(d)
		outcome := metrics.OutcomeRejected
		if ok {
			outcome = metrics.OutcomeAccepted
		}
		metrics.RecordCandidate(outcome)
		s.publish(events.CandidateEvent{
			Path:      d.Path,
			Outcome:   outcome,
			Timestamp: s.timestamp(),
		})
		return ok
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, devnode.ErrNoMatch) {
			outcome = "none"
		}
		metrics.RecordProbe(outcome, s.now().Sub(start).Seconds())
		s.publish(events.ProbeFailedEvent{
			Root:      s.prober.Root,
			Prefix:    s.prober.Prefix,
			Error:     err.Error(),
			Timestamp: s.timestamp(),
		})
		return nil, err
	}
	defer dev.Close()

	result := &Result{Video: videoInfo(dev)}
	s.publish(events.DeviceFoundEvent{
		Path:      dev.Path,
		Driver:    dev.Capability.Driver,
		Card:      dev.Capability.Card,
		BusInfo:   dev.Capability.BusInfo,
		Timestamp: s.timestamp(),
	})

	media, err := s.correlator.Correlate(dev.Fd)
	switch {
	case err == nil:
		defer media.Close()
		info := mediaInfo(media)
		result.Media = &info
		metrics.RecordMediaMatch()
		s.publish(events.MediaMatchedEvent{
			VideoPath: dev.Path,
			MediaPath: media.Path,
			Driver:    media.Info.Driver,
			Model:     media.Info.Model,
			Timestamp: s.timestamp(),
		})
	case errors.Is(err, devnode.ErrNoMatch):
		s.logger.Debug("No media controller node for video device", "path", dev.Path)
	default:
		s.logger.Warn("Media correlation failed", "path", dev.Path, "error", err)
	}

	metrics.RecordProbe("found", s.now().Sub(start).Seconds())
	return result, nil
}

// Media correlates a media controller node for an already known video
// device path.
func (s *Service) Media(videoPath string) (*MediaInfo, error) {
	dev, err := v4l2.Open(videoPath)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	media, err := s.correlator.Correlate(dev.Fd)
	if err != nil {
		return nil, fmt.Errorf("correlate media for %s: %w", videoPath, err)
	}
	defer media.Close()

	info := mediaInfo(media)
	return &info, nil
}

func (s *Service) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func videoInfo(dev *v4l2.Device) VideoInfo {
	return VideoInfo{
		Path:         dev.Path,
		Driver:       dev.Capability.Driver,
		Card:         dev.Capability.Card,
		BusInfo:      dev.Capability.BusInfo,
		Version:      dev.Capability.Version,
		Capabilities: dev.Capability.Capabilities,
		DeviceCaps:   dev.Capability.DeviceCaps,
	}
}

func mediaInfo(dev *mediactl.Device) MediaInfo {
	return MediaInfo{
		Path:          dev.Path,
		Driver:        dev.Info.Driver,
		Model:         dev.Info.Model,
		Serial:        dev.Info.Serial,
		BusInfo:       dev.Info.BusInfo,
		MediaVersion:  dev.Info.MediaVersion,
		DriverVersion: dev.Info.DriverVersion,
	}
}
