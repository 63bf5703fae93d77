// Package fsutil holds the working directory helpers shared by the
// normalizer and the finalizer.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FilesystemError is a failed delete, rename or write. Callers log and
// count it and carry on with the next file.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// IsImage reports whether name carries one of the image extensions the
// working directory may hold.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// ListImages returns the image file names in dir, sorted, so repeat runs
// see candidates in the same order.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Remove deletes path. A file that is already gone is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &FilesystemError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Rename moves from to to, refusing to replace an existing file.
func Rename(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		return &FilesystemError{Op: "rename", Path: from, Err: fmt.Errorf("%s already exists", to)}
	}
	if err := os.Rename(from, to); err != nil {
		return &FilesystemError{Op: "rename", Path: from, Err: err}
	}
	return nil
}
