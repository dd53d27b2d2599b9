//go:build linux

// Package devnode provides the shared primitives for discovering Linux
// device nodes: directory scanning by name prefix, device-node identity
// resolution, and the variable-length kernel query protocol.
//
// Enumeration order is whatever the kernel returns from the directory
// listing. It is not sorted and not guaranteed stable across calls;
// callers that pick "the first matching device" inherit that order.
package devnode

import (
	"os"
	"path/filepath"
	"strings"
)

// Scan returns the full paths of entries under root whose name starts
// with prefix, in directory-listing order.
//
// A root that cannot be listed is fatal and reported as *DirectoryError.
func Scan(root, prefix string) ([]string, error) {
	dir, err := os.Open(root)
	if err != nil {
		return nil, &DirectoryError{Root: root, Err: err}
	}
	defer dir.Close()

	// Readdirnames keeps the kernel's ordering; os.ReadDir would sort.
	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, &DirectoryError{Root: root, Err: err}
	}

	var paths []string
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		paths = append(paths, filepath.Join(root, name))
	}
	return paths, nil
}
