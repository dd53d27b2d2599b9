package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return e.Code
}

func TestDisabledManagerRefusesEverything(t *testing.T) {
	m := &manager{state: StateIdle, disabled: "install directory is read-only", logger: quietLogger()}

	if m.IsEnabled() {
		t.Error("manager with a disabled reason reports enabled")
	}
	if m.DisabledReason() == "" {
		t.Error("expected a disabled reason")
	}

	ctx := context.Background()
	if _, err := m.CheckForUpdate(ctx); errCode(t, err) != ErrCodeDisabled {
		t.Errorf("CheckForUpdate code = %s, want %s", errCode(t, err), ErrCodeDisabled)
	}
	if err := m.ApplyUpdate(ctx); errCode(t, err) != ErrCodeDisabled {
		t.Errorf("ApplyUpdate code = %s, want %s", errCode(t, err), ErrCodeDisabled)
	}
	if err := m.Rollback(ctx); errCode(t, err) != ErrCodeDisabled {
		t.Errorf("Rollback code = %s, want %s", errCode(t, err), ErrCodeDisabled)
	}
}

func TestEnterEnforcesFromStates(t *testing.T) {
	m := &manager{state: StateChecking, logger: quietLogger()}

	if m.enter(StateApplying, StateAvailable) {
		t.Error("transition out of checking into applying should be refused")
	}
	if m.currentState() != StateChecking {
		t.Errorf("state changed to %s after refused transition", m.currentState())
	}

	if !m.enter(StateError) {
		t.Error("unconditional transition refused")
	}
	if m.currentState() != StateError {
		t.Errorf("state = %s, want %s", m.currentState(), StateError)
	}
	if !m.enter(StateChecking, StateIdle, StateAvailable, StateError) {
		t.Error("re-check from error state should be allowed")
	}
}

func TestEnterClearsFailure(t *testing.T) {
	m := &manager{state: StateIdle, logger: quietLogger()}
	m.fail(fmt.Errorf("detect: network unreachable"))

	st := m.GetStatus(context.Background())
	if st.State != StateError || st.Error == "" {
		t.Fatalf("status after fail = %+v", st)
	}

	m.enter(StateIdle)
	st = m.GetStatus(context.Background())
	if st.Error != "" {
		t.Errorf("error survived transition: %q", st.Error)
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	m := &manager{state: StateIdle, logger: quietLogger()}
	if err := m.Rollback(context.Background()); errCode(t, err) != ErrCodeNoBackup {
		t.Errorf("code = %s, want %s", errCode(t, err), ErrCodeNoBackup)
	}
}

func TestApplyUpdateRefusedWhileChecking(t *testing.T) {
	m := &manager{state: StateChecking, logger: quietLogger()}
	if err := m.ApplyUpdate(context.Background()); errCode(t, err) != ErrCodeInvalidState {
		t.Errorf("code = %s, want %s", errCode(t, err), ErrCodeInvalidState)
	}
}

func TestBackupStoreSaveAndReopen(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	store, err := openBackupStore(quietLogger())
	if err != nil {
		t.Fatalf("openBackupStore: %v", err)
	}
	if store.available() {
		t.Fatal("fresh store claims a rollback copy")
	}

	if err := store.save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.available() {
		t.Error("store has no rollback copy after save")
	}
	if got := store.savedVersion(); got == "" {
		t.Error("saved version is empty")
	}

	// A second store over the same directory must pick the record up.
	reopened, err := openBackupStore(quietLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.available() {
		t.Error("reopened store lost the rollback copy")
	}
}

func TestBackupStoreIgnoresRecordWithoutBinary(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	dir := filepath.Join(cache, "v4lfind")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	rec, _ := json.Marshal(backupRecord{Version: "1.0.0", SavedAt: time.Now(), Binary: "/usr/bin/v4lfind"})
	if err := os.WriteFile(filepath.Join(dir, backupMeta), rec, 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := openBackupStore(quietLogger())
	if err != nil {
		t.Fatalf("openBackupStore: %v", err)
	}
	if store.available() {
		t.Error("record without a binary should be discarded")
	}
}
