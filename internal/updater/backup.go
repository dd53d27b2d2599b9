package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/v4lfind/v4lfind/internal/version"
)

const (
	backupBinary = "previous"
	backupMeta   = "previous.json"
)

type backupRecord struct {
	Version string    `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Binary  string    `json:"binary"`
}

// backupStore keeps one copy of the pre-update binary under the user
// cache directory, alongside a JSON record of what was saved.
type backupStore struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	record *backupRecord
}

func openBackupStore(logger *slog.Logger) (*backupStore, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}
	dir := filepath.Join(cache, "v4lfind")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	s := &backupStore{dir: dir, logger: logger}
	s.load()
	return s, nil
}

// load picks up a record left by an earlier run. A record whose binary
// has since disappeared is ignored.
func (s *backupStore) load() {
	data, err := os.ReadFile(filepath.Join(s.dir, backupMeta))
	if err != nil {
		return
	}
	var rec backupRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("Discarding unreadable rollback record", "error", err)
		return
	}
	if _, err := os.Stat(filepath.Join(s.dir, backupBinary)); err != nil {
		s.logger.Warn("Rollback record present but binary missing", "dir", s.dir)
		return
	}
	s.record = &rec
	s.logger.Info("Found rollback copy", "version", rec.Version)
}

// save copies the running binary into the store, replacing any earlier
// copy.
func (s *backupStore) save() error {
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := copyFile(filepath.Join(s.dir, backupBinary), exe); err != nil {
		return fmt.Errorf("copy binary aside: %w", err)
	}

	rec := backupRecord{
		Version: version.Version,
		SavedAt: time.Now(),
		Binary:  exe,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encode rollback record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, backupMeta), data, 0o644); err != nil {
		return fmt.Errorf("write rollback record: %w", err)
	}

	s.mu.Lock()
	s.record = &rec
	s.mu.Unlock()

	s.logger.Info("Saved rollback copy", "version", rec.Version)
	return nil
}

// restore puts the saved copy back at the path it was taken from.
func (s *backupStore) restore() error {
	s.mu.Lock()
	rec := s.record
	s.mu.Unlock()

	if rec == nil {
		return fmt.Errorf("no rollback copy saved")
	}
	if err := copyFile(rec.Binary, filepath.Join(s.dir, backupBinary)); err != nil {
		return fmt.Errorf("restore binary: %w", err)
	}
	s.logger.Info("Restored rollback copy", "version", rec.Version)
	return nil
}

func (s *backupStore) available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record != nil
}

func (s *backupStore) savedVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return ""
	}
	return s.record.Version
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
