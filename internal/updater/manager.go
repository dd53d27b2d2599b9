package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/internal/version"
)

// Grace period between answering the HTTP request and sending SIGTERM,
// so the response reaches the client before the process goes down.
const restartDelay = 500 * time.Millisecond

type manager struct {
	slug    string
	repo    selfupdate.Repository
	engine  *selfupdate.Updater
	backups *backupStore

	mu        sync.Mutex
	state     State
	pending   *selfupdate.Release
	checkedAt *time.Time
	failure   error

	// Non-empty when the binary cannot replace itself. All mutating
	// operations refuse with ErrCodeDisabled while set.
	disabled string

	logger *slog.Logger
}

// New builds the update service for the given repository slug. When the
// running binary's directory is not writable the returned service stays
// up but refuses every operation, surfacing the reason through the API.
func New(opts Options) (Service, error) {
	logger := logging.GetLogger("updater")

	if reason := selfReplaceable(); reason != "" {
		logger.Warn("Self-update disabled", "reason", reason)
		return &manager{state: StateIdle, disabled: reason, logger: logger}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("github source: %w", err)
	}

	engine, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("selfupdate: %w", err)
	}

	backups, err := openBackupStore(logger)
	if err != nil {
		logger.Warn("Rollback store unavailable", "error", err)
	}

	return &manager{
		slug:    opts.Repository,
		repo:    selfupdate.ParseSlug(opts.Repository),
		engine:  engine,
		backups: backups,
		state:   StateIdle,
		logger:  logger,
	}, nil
}

// selfReplaceable reports why the running binary cannot be swapped in
// place, or "" when it can. Packaged installs under /usr typically land
// in a root-owned directory.
func selfReplaceable() string {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Sprintf("cannot locate executable: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Sprintf("cannot resolve executable path: %v", err)
	}
	dir := filepath.Dir(exe)
	scratch := filepath.Join(dir, ".v4lfind-write-check")
	f, err := os.Create(scratch)
	if err != nil {
		return fmt.Sprintf("%s is not writable: %v", dir, err)
	}
	f.Close()
	os.Remove(scratch)
	return ""
}

func (m *manager) IsEnabled() bool { return m.disabled == "" }

func (m *manager) DisabledReason() string { return m.disabled }

// CheckForUpdate asks GitHub for the newest release and remembers it
// for a later ApplyUpdate. Nothing is downloaded. A "dev" build is
// always considered older than any published release.
func (m *manager) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	if m.disabled != "" {
		return nil, newError(ErrCodeDisabled, m.disabled, nil)
	}
	if !m.enter(StateChecking, StateIdle, StateAvailable, StateError) {
		return nil, newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot check for updates while %s", m.currentState()), nil)
	}

	release, found, err := m.engine.DetectLatest(ctx, m.repo)
	if err != nil {
		m.fail(err)
		return nil, newError(ErrCodeCheckFailed, "update check failed", err)
	}

	now := time.Now()
	m.mu.Lock()
	m.checkedAt = &now
	m.mu.Unlock()

	if !found {
		err := fmt.Errorf("%s has no releases", m.slug)
		m.fail(err)
		return nil, newError(ErrCodeNotFound, err.Error(), nil)
	}

	running := version.Version
	info := &UpdateInfo{
		CurrentVersion: running,
		LatestVersion:  release.Version(),
	}
	if running != "dev" && !release.GreaterThan(running) {
		m.enter(StateIdle)
		return info, nil
	}

	m.mu.Lock()
	m.pending = release
	m.mu.Unlock()
	m.enter(StateAvailable)

	info.UpdateAvailable = true
	info.ReleaseNotes = release.ReleaseNotes
	info.ReleaseURL = release.URL
	info.PublishedAt = release.PublishedAt
	info.AssetSize = release.AssetByteSize
	return info, nil
}

// ApplyUpdate saves the running binary aside, swaps in the release found
// by the last check and schedules a SIGTERM so the service manager brings
// the new binary up. A failed swap restores the saved copy.
func (m *manager) ApplyUpdate(ctx context.Context) error {
	if m.disabled != "" {
		return newError(ErrCodeDisabled, m.disabled, nil)
	}

	// Allow apply without a prior explicit check.
	if m.currentState() == StateIdle {
		info, err := m.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "no update available", nil)
		}
	}

	if !m.enter(StateApplying, StateAvailable) {
		return newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot apply an update while %s", m.currentState()), nil)
	}

	if m.backups != nil {
		if err := m.backups.save(); err != nil {
			m.fail(err)
			return newError(ErrCodeBackupFailed, "could not save rollback copy", err)
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		m.fail(err)
		m.revert()
		return newError(ErrCodeApplyFailed, "cannot locate executable", err)
	}

	m.mu.Lock()
	release := m.pending
	m.mu.Unlock()

	if err := m.engine.UpdateTo(ctx, release, exe); err != nil {
		m.fail(err)
		m.revert()
		return newError(ErrCodeApplyFailed, "update failed", err)
	}

	m.enter(StateRestarting)
	m.logger.Info("Update applied, restarting", "version", release.Version())
	m.scheduleRestart()
	return nil
}

// Rollback swaps the saved pre-update binary back in and schedules a
// restart.
func (m *manager) Rollback(_ context.Context) error {
	if m.disabled != "" {
		return newError(ErrCodeDisabled, m.disabled, nil)
	}
	if m.backups == nil || !m.backups.available() {
		return newError(ErrCodeNoBackup, "nothing to roll back to", nil)
	}
	if err := m.backups.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "rollback failed", err)
	}

	m.enter(StateRolledBack)
	m.logger.Info("Rollback complete, restarting")
	m.scheduleRestart()
	return nil
}

// Restart schedules a SIGTERM without touching the binary.
func (m *manager) Restart(_ context.Context) error {
	m.logger.Info("Restart requested")
	m.scheduleRestart()
	return nil
}

func (m *manager) GetStatus(_ context.Context) *Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := &Status{
		State:          m.state,
		CurrentVersion: version.Version,
		LastChecked:    m.checkedAt,
	}
	if m.pending != nil {
		st.TargetVersion = m.pending.Version()
	}
	if m.failure != nil {
		st.Error = m.failure.Error()
	}
	if m.backups != nil {
		st.BackupAvailable = m.backups.available()
		st.BackupVersion = m.backups.savedVersion()
	}
	return st
}

// enter moves to the given state, clearing any failure. With a non-empty
// from list the move only happens when the current state is listed.
func (m *manager) enter(to State, from ...State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(from) > 0 && !slices.Contains(from, m.state) {
		return false
	}
	m.state = to
	m.failure = nil
	return true
}

func (m *manager) currentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *manager) fail(err error) {
	m.mu.Lock()
	m.state = StateError
	m.failure = err
	m.mu.Unlock()
}

// revert restores the saved binary after a failed apply, best effort.
func (m *manager) revert() {
	if m.backups == nil || !m.backups.available() {
		m.logger.Error("No rollback copy to restore after failed update")
		return
	}
	if err := m.backups.restore(); err != nil {
		m.logger.Error("Could not restore rollback copy", "error", err)
		return
	}
	m.enter(StateRolledBack)
	m.logger.Info("Restored previous binary after failed update")
}

func (m *manager) scheduleRestart() {
	go func() {
		time.Sleep(restartDelay)
		m.logger.Info("Sending SIGTERM to hand control to the service manager")
		if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
			m.logger.Error("Failed to signal restart", "error", err)
		}
	}()
}
