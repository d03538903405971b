// Package validation guards the mapping from workspace object names to local
// files. Names come from the workspace API and are not trusted.
package validation

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ValidateFilename checks a single path segment. Separators of either
// style, NUL bytes and the "." and ".." names are rejected.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name cannot be empty")
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name contains a null byte: %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name cannot contain path separators: %q", name)
	case name == "." || name == "..":
		return fmt.Errorf("name cannot be %q", name)
	}
	return nil
}

// ValidateRemoteChild checks that child is a direct child of the remote
// directory parent and that its last segment is a valid file name.
func ValidateRemoteChild(parent, child string) error {
	if !strings.HasPrefix(child, "/") {
		return fmt.Errorf("workspace path must be absolute: %q", child)
	}
	if path.Clean(child) != child {
		return fmt.Errorf("workspace path is not clean: %q", child)
	}
	if dir := path.Dir(child); dir != path.Clean("/"+parent) {
		return fmt.Errorf("%s is not a child of %s", child, parent)
	}
	return ValidateFilename(path.Base(child))
}

// ValidatePathInDirectory checks that p, resolved against baseDir when
// relative, stays inside baseDir.
func ValidatePathInDirectory(p, baseDir string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	resolved := filepath.Clean(p)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes %s: %s", baseDir, p)
	}
	return nil
}
