// Package models defines the request and response bodies of the HTTP
// API.
package models

import (
	"github.com/v4lfind/v4lfind/internal/discovery"
	"github.com/v4lfind/v4lfind/pkg/linuxav/v4l2"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	Commit    string `json:"commit" example:"abc123" doc:"Git revision"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// DeviceSummary is one entry in the device list.
type DeviceSummary struct {
	discovery.VideoInfo
	CapabilityNames []string `json:"capability_names" example:"[\"Video Capture\",\"Streaming\"]" doc:"Decoded effective capability flags"`
}

type DeviceListData struct {
	Devices []DeviceSummary `json:"devices" doc:"Video devices found in the scan directory"`
	Count   int             `json:"count" example:"2" doc:"Number of devices"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

type DeviceDetailResponse struct {
	Body DeviceSummary
}

type MediaResponse struct {
	Body discovery.MediaInfo
}

// DiscoverBody selects what a discovery pass should accept.
type DiscoverBody struct {
	RequireCaps uint32 `json:"require_caps,omitempty" example:"1" doc:"Capability mask every bit of which must be set"`
	M2M         bool   `json:"m2m,omitempty" example:"false" doc:"Match memory-to-memory codec devices instead of a capability mask"`
}

type DiscoverInput struct {
	Body DiscoverBody
}

type DiscoverResponse struct {
	Body discovery.Result
}

// capabilityNames maps flag bits to readable names, in bit order.
var capabilityNames = []struct {
	mask uint32
	name string
}{
	{v4l2.CapVideoCapture, "Video Capture"},
	{v4l2.CapVideoOutput, "Video Output"},
	{v4l2.CapVideoCaptureMplane, "Video Capture Multiplanar"},
	{v4l2.CapVideoOutputMplane, "Video Output Multiplanar"},
	{v4l2.CapVideoM2MMplane, "Video Memory-to-Memory Multiplanar"},
	{v4l2.CapVideoM2M, "Video Memory-to-Memory"},
	{v4l2.CapMetaCapture, "Metadata Capture"},
	{v4l2.CapReadWrite, "Read/Write"},
	{v4l2.CapStreaming, "Streaming"},
	{v4l2.CapIOMC, "IO Media Controller"},
}

// CapabilityNames decodes a capability mask into readable names.
func CapabilityNames(caps uint32) []string {
	var names []string
	for _, c := range capabilityNames {
		if caps&c.mask != 0 {
			names = append(names, c.name)
		}
	}
	return names
}

// NewDeviceSummary builds a list entry with decoded capability names.
func NewDeviceSummary(info discovery.VideoInfo) DeviceSummary {
	effective := info.Capabilities
	if info.Capabilities&v4l2.CapDeviceCaps != 0 {
		effective = info.DeviceCaps
	}
	return DeviceSummary{
		VideoInfo:       info,
		CapabilityNames: CapabilityNames(effective),
	}
}
