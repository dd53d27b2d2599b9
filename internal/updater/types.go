// Package updater swaps the running v4lfind binary for a newer GitHub
// release and can fall back to the copy saved before the swap. The
// process restarts by sending itself SIGTERM and relying on the service
// manager to bring it back up.
package updater

import (
	"context"
	"time"
)

// State names a phase of the update lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateAvailable  State = "available"
	StateApplying   State = "applying"
	StateRestarting State = "restarting"
	StateError      State = "error"
	StateRolledBack State = "rolled_back"
)

// Service is what the HTTP layer sees of the updater.
type Service interface {
	// CheckForUpdate looks for a newer release without downloading it.
	CheckForUpdate(ctx context.Context) (*UpdateInfo, error)

	// ApplyUpdate swaps the binary for the latest release and restarts.
	ApplyUpdate(ctx context.Context) error

	// Rollback restores the pre-update binary and restarts.
	Rollback(ctx context.Context) error

	// GetStatus reports the current lifecycle state and versions.
	GetStatus(ctx context.Context) *Status

	// Restart restarts the process without touching the binary.
	Restart(ctx context.Context) error

	// IsEnabled reports whether the binary can replace itself.
	IsEnabled() bool

	// DisabledReason explains a false IsEnabled, empty otherwise.
	DisabledReason() string
}

// UpdateInfo describes the outcome of an update check.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes"`
	ReleaseURL      string    `json:"release_url"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status is a snapshot of the updater's state.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Options selects the release source.
type Options struct {
	Repository string // GitHub slug, owner/name
	Prerelease bool
}
