package models

import "time"

// UpdateCheckData reports whether a newer release exists.
type UpdateCheckData struct {
	CurrentVersion  string    `json:"current_version" example:"1.0.0" doc:"Version this process is running"`
	LatestVersion   string    `json:"latest_version" example:"1.1.0" doc:"Newest published version"`
	ReleaseNotes    string    `json:"release_notes" doc:"Markdown release notes"`
	ReleaseURL      string    `json:"release_url" doc:"Release page URL"`
	PublishedAt     time.Time `json:"published_at" doc:"Release publication time"`
	AssetSize       int       `json:"asset_size" example:"5242880" doc:"Download size in bytes"`
	UpdateAvailable bool      `json:"update_available" example:"true" doc:"True when an update can be applied"`
}

// UpdateCheckResponse wraps UpdateCheckData for API responses.
type UpdateCheckResponse struct {
	Body UpdateCheckData
}

// UpdateStatusData is a snapshot of the update lifecycle.
type UpdateStatusData struct {
	State           string     `json:"state" example:"idle" doc:"Lifecycle state"`
	CurrentVersion  string     `json:"current_version" example:"1.0.0" doc:"Version this process is running"`
	TargetVersion   string     `json:"target_version,omitempty" example:"1.1.0" doc:"Version being installed"`
	Error           string     `json:"error,omitempty" doc:"Last failure, set in the error state"`
	LastChecked     *time.Time `json:"last_checked,omitempty" doc:"Time of the last update check"`
	BackupAvailable bool       `json:"backup_available" example:"true" doc:"True when a rollback copy exists"`
	BackupVersion   string     `json:"backup_version,omitempty" example:"1.0.0" doc:"Version of the rollback copy"`
}

// UpdateStatusResponse wraps UpdateStatusData for API responses.
type UpdateStatusResponse struct {
	Body UpdateStatusData
}

// UpdateActionResponse acknowledges apply, rollback and restart
// requests, all of which end in a process restart.
type UpdateActionResponse struct {
	Body struct {
		Message string `json:"message" example:"Restarting..." doc:"Acknowledgement"`
	}
}
