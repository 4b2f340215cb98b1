// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
var ErrInvalidFilesystemPath = errors.New("invalid filesystem path")

type (
	// FilesystemPath is a path handed to the launchers by the parent build
	// process. Paths are kept exactly as received; callers decide whether a
	// missing path is an error.
	FilesystemPath string

	// InvalidFilesystemPathError is returned when a required FilesystemPath is
	// empty or whitespace-only.
	InvalidFilesystemPathError struct {
		Field string
		Value FilesystemPath
	}
)

// String returns the string representation of the FilesystemPath.
func (p FilesystemPath) String() string { return string(p) }

// Validate returns an error when the path is empty or whitespace-only.
// field names the argument in the error message.
func (p FilesystemPath) Validate(field string) error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidFilesystemPathError{Field: field, Value: p}
	}
	return nil
}

// Exists reports whether something is present at the path. Any stat error,
// including permission errors, counts as absent.
func (p FilesystemPath) Exists() bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(string(p))
	return err == nil
}

// IsDir reports whether the path names an existing directory.
// A missing path yields (false, nil); other stat failures are returned.
func (p FilesystemPath) IsDir() (bool, error) {
	if p == "" {
		return false, nil
	}
	info, err := os.Stat(string(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// Join appends slash-separated or OS-separated elements to the path.
func (p FilesystemPath) Join(elem ...string) FilesystemPath {
	parts := make([]string, 0, 1+len(elem))
	parts = append(parts, string(p))
	parts = append(parts, elem...)
	return FilesystemPath(filepath.Join(parts...))
}

// Base returns the last element of the path.
func (p FilesystemPath) Base() string { return filepath.Base(string(p)) }

// Dir returns all but the last element of the path.
func (p FilesystemPath) Dir() FilesystemPath { return FilesystemPath(filepath.Dir(string(p))) }

// Error implements the error interface for InvalidFilesystemPathError.
func (e *InvalidFilesystemPathError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %q: must be non-empty", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidFilesystemPath for errors.Is() compatibility.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }
