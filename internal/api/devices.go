package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/v4lfind/v4lfind/internal/api/models"
	"github.com/v4lfind/v4lfind/pkg/linuxav/devnode"
	"github.com/v4lfind/v4lfind/pkg/linuxav/v4l2"
)

// DeviceNameInput identifies a device node by name within the scan
// directory.
type DeviceNameInput struct {
	Name string `path:"name" example:"video0" doc:"Device node name inside the device directory"`
}

func (s *Server) deviceRoot() string {
	if s.options.DeviceRoot != "" {
		return s.options.DeviceRoot
	}
	return v4l2.DefaultRoot
}

// devicePath resolves a node name to a path, rejecting anything that
// would escape the device directory.
func (s *Server) devicePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || name == ".." {
		return "", huma.Error422UnprocessableEntity("invalid device name")
	}
	return filepath.Join(s.deviceRoot(), name), nil
}

func deviceError(name string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return huma.Error404NotFound("device " + name + " not found")
	case errors.Is(err, devnode.ErrNoMatch):
		return huma.Error404NotFound("no match for device " + name)
	default:
		return huma.Error500InternalServerError("device query failed", err)
	}
}

// registerDeviceRoutes registers device listing, inspection and
// discovery endpoints.
func (s *Server) registerDeviceRoutes() {
	// List all video devices
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List video device nodes that answer a capability query, in directory order",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.DeviceListResponse, error) {
		infos, err := s.discovery.List()
		if err != nil {
			return nil, huma.Error500InternalServerError("device scan failed", err)
		}

		devices := make([]models.DeviceSummary, 0, len(infos))
		for _, info := range infos {
			devices = append(devices, models.NewDeviceSummary(info))
		}

		return &models.DeviceListResponse{
			Body: models.DeviceListData{
				Devices: devices,
				Count:   len(devices),
			},
		}, nil
	})

	// Describe a single device
	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/{name}",
		Summary:     "Get Device",
		Description: "Query the capability of a single video device node",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 500},
	}, func(_ context.Context, input *DeviceNameInput) (*models.DeviceDetailResponse, error) {
		path, err := s.devicePath(input.Name)
		if err != nil {
			return nil, err
		}

		info, err := s.discovery.Describe(path)
		if err != nil {
			return nil, deviceError(input.Name, err)
		}

		return &models.DeviceDetailResponse{
			Body: models.NewDeviceSummary(info),
		}, nil
	})

	// Correlate the media controller node for a device
	huma.Register(s.api, huma.Operation{
		OperationID: "get-device-media",
		Method:      http.MethodGet,
		Path:        "/api/devices/{name}/media",
		Summary:     "Get Device Media Controller",
		Description: "Find the media controller node whose topology references this video device",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 500},
	}, func(_ context.Context, input *DeviceNameInput) (*models.MediaResponse, error) {
		path, err := s.devicePath(input.Name)
		if err != nil {
			return nil, err
		}

		info, err := s.discovery.Media(path)
		if err != nil {
			return nil, deviceError(input.Name, err)
		}

		return &models.MediaResponse{Body: *info}, nil
	})

	// Run a discovery pass
	huma.Register(s.api, huma.Operation{
		OperationID: "discover",
		Method:      http.MethodPost,
		Path:        "/api/discover",
		Summary:     "Discover",
		Description: "Run a discovery pass and return the first matching device with its media controller node",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(_ context.Context, input *models.DiscoverInput) (*models.DiscoverResponse, error) {
		accept := v4l2.RequireCaps(input.Body.RequireCaps)
		if input.Body.M2M {
			accept = v4l2.RequireM2M()
		}

		result, err := s.discovery.Discover(accept)
		if err != nil {
			if errors.Is(err, devnode.ErrNoMatch) {
				return nil, huma.Error404NotFound("no device matched")
			}
			return nil, huma.Error500InternalServerError("discovery failed", err)
		}

		return &models.DiscoverResponse{Body: *result}, nil
	})
}
