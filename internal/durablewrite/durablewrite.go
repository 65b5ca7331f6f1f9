// Package durablewrite provides the temp-file-then-rename write discipline
// used throughout the cognition core so that memory, session, and journal
// files are never left half-written after a crash.
//
// Grounded on the teacher's internal/sessions Manager.Save atomic write
// sequence: create a temp file in the destination directory, write, fsync,
// close, then rename over the destination.
package durablewrite

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile atomically replaces (or creates) path with data. dir must be
// the directory containing path, and must already exist; the temp file is
// created alongside the destination so the final rename is same-filesystem.
func WriteFile(dir, path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("durablewrite: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("durablewrite: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("durablewrite: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("durablewrite: close: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("durablewrite: chmod: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("durablewrite: rename: %w", err)
	}
	cleanup = false
	return nil
}

// WriteNewFile is like WriteFile but fails if path already exists, for
// callers that require "create, don't clobber" semantics (e.g. memory item
// filename collision handling picks a new name instead of calling this
// twice for the same path).
func WriteNewFile(dir, path string, data []byte, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("durablewrite: %s already exists", filepath.Base(path))
	} else if !os.IsNotExist(err) {
		return err
	}
	return WriteFile(dir, path, data, perm)
}
