// Package localfs holds the local filesystem helpers used by the sync folder:
// hidden entry filtering, directory listing and walking, existence checks.
package localfs

import (
	"path/filepath"
	"strings"
)

// IsHidden reports whether the base name of path is hidden.
func IsHidden(path string) bool {
	return IsHiddenName(filepath.Base(path))
}

// IsHiddenName reports whether a bare file name is hidden (dot-prefixed).
// "." and ".." are not hidden.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// IsScratchName reports editor backup and swap files that never belong in a
// workspace: "notes.py~", ".notes.py.swp", "#notes.py#".
func IsScratchName(name string) bool {
	return strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		(strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#"))
}
