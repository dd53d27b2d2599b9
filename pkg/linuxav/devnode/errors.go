//go:build linux

package devnode

import (
	"errors"
	"fmt"
)

// ErrNoMatch reports that every candidate was scanned and none was
// accepted. Individual candidate failures (open, query) are soft: they
// are logged by the scanning layer and surface only as this terminal
// error when no candidate ever succeeds.
var ErrNoMatch = errors.New("no matching device")

// DirectoryError reports that the device directory itself could not be
// listed. Unlike per-candidate failures it aborts the whole scan.
type DirectoryError struct {
	Root string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("list device directory %s: %v", e.Root, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
