package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/v4lfind/v4lfind/internal/api/models"
	"github.com/v4lfind/v4lfind/internal/updater"
)

type updateRoute struct {
	id      string
	method  string
	path    string
	summary string
}

var updateRoutes = []updateRoute{
	{"check-updates", http.MethodGet, "/api/update/check", "Check for Updates"},
	{"get-update-status", http.MethodGet, "/api/update/status", "Get Update Status"},
	{"apply-update", http.MethodPost, "/api/update/apply", "Apply Update"},
	{"rollback-update", http.MethodPost, "/api/update/rollback", "Rollback Update"},
	{"restart-service", http.MethodPost, "/api/update/restart", "Restart Service"},
}

func (s *Server) registerUpdateRoutes() {
	svc := s.options.UpdateService
	if svc == nil {
		return
	}
	if !svc.IsEnabled() {
		s.registerDisabledUpdateRoutes(svc.DisabledReason())
		return
	}

	op := func(r updateRoute, description string, status ...int) huma.Operation {
		return huma.Operation{
			OperationID: r.id,
			Method:      r.method,
			Path:        r.path,
			Summary:     r.summary,
			Description: description,
			Tags:        []string{"update"},
			Errors:      status,
			Security:    withAuth(),
		}
	}

	huma.Register(s.api, op(updateRoutes[0],
		"Look for a newer release without downloading anything", 401, 409, 500),
		func(ctx context.Context, _ *struct{}) (*models.UpdateCheckResponse, error) {
			info, err := svc.CheckForUpdate(ctx)
			if err != nil {
				return nil, mapUpdateError(err)
			}
			return &models.UpdateCheckResponse{Body: models.UpdateCheckData{
				CurrentVersion:  info.CurrentVersion,
				LatestVersion:   info.LatestVersion,
				ReleaseNotes:    info.ReleaseNotes,
				ReleaseURL:      info.ReleaseURL,
				PublishedAt:     info.PublishedAt,
				AssetSize:       info.AssetSize,
				UpdateAvailable: info.UpdateAvailable,
			}}, nil
		})

	huma.Register(s.api, op(updateRoutes[1],
		"Report the update lifecycle state and rollback availability", 401, 500),
		func(ctx context.Context, _ *struct{}) (*models.UpdateStatusResponse, error) {
			status := svc.GetStatus(ctx)
			return &models.UpdateStatusResponse{Body: models.UpdateStatusData{
				State:           string(status.State),
				CurrentVersion:  status.CurrentVersion,
				TargetVersion:   status.TargetVersion,
				Error:           status.Error,
				LastChecked:     status.LastChecked,
				BackupAvailable: status.BackupAvailable,
				BackupVersion:   status.BackupVersion,
			}}, nil
		})

	huma.Register(s.api, op(updateRoutes[2],
		"Download the newest release, swap it in and restart", 400, 401, 409, 500),
		func(ctx context.Context, _ *struct{}) (*models.UpdateActionResponse, error) {
			if err := svc.ApplyUpdate(ctx); err != nil {
				return nil, mapUpdateError(err)
			}
			return ackResponse("Update applied, restarting..."), nil
		})

	huma.Register(s.api, op(updateRoutes[3],
		"Swap the pre-update binary back in and restart", 400, 401, 404, 500),
		func(ctx context.Context, _ *struct{}) (*models.UpdateActionResponse, error) {
			if err := svc.Rollback(ctx); err != nil {
				return nil, mapUpdateError(err)
			}
			return ackResponse("Rollback complete, restarting..."), nil
		})

	huma.Register(s.api, op(updateRoutes[4],
		"Restart the process without changing the binary", 401, 500),
		func(ctx context.Context, _ *struct{}) (*models.UpdateActionResponse, error) {
			if err := svc.Restart(ctx); err != nil {
				return nil, huma.Error500InternalServerError(err.Error())
			}
			return ackResponse("Restarting..."), nil
		})
}

// registerDisabledUpdateRoutes keeps the update paths present in the
// OpenAPI document but answers every call with 503 and the reason.
func (s *Server) registerDisabledUpdateRoutes(reason string) {
	handler := func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, huma.Error503ServiceUnavailable("Update service disabled: " + reason)
	}
	for _, r := range updateRoutes {
		huma.Register(s.api, huma.Operation{
			OperationID: r.id,
			Method:      r.method,
			Path:        r.path,
			Summary:     r.summary,
			Description: r.summary + " (disabled)",
			Tags:        []string{"update"},
			Errors:      []int{503},
			Security:    withAuth(),
		}, handler)
	}
}

func ackResponse(msg string) *models.UpdateActionResponse {
	resp := &models.UpdateActionResponse{}
	resp.Body.Message = msg
	return resp
}

// mapUpdateError translates updater error codes into HTTP statuses.
func mapUpdateError(err error) error {
	var updateErr *updater.Error
	if !errors.As(err, &updateErr) {
		return huma.Error500InternalServerError(err.Error())
	}
	switch updateErr.Code {
	case updater.ErrCodeInvalidState:
		return huma.Error409Conflict(updateErr.Message)
	case updater.ErrCodeNoUpdate:
		return huma.Error400BadRequest(updateErr.Message)
	case updater.ErrCodeNoBackup, updater.ErrCodeNotFound:
		return huma.Error404NotFound(updateErr.Message)
	case updater.ErrCodeDisabled:
		return huma.Error503ServiceUnavailable(updateErr.Message)
	default:
		return huma.Error500InternalServerError(updateErr.Message)
	}
}
