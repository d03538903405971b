package workspace

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Layout maps remote workspace paths into the local sync folder:
// {SyncRoot}/{WorkspaceSubfolder}/{remotePath}{extension}.
type Layout struct {
	SyncRoot                        string
	WorkspaceSubfolder              string
	Extensions                      *ExtensionTable
	AllowAllSupportedFileExtensions bool
}

// NewLayout validates the roots and fills in the default extension table.
func NewLayout(syncRoot, subfolder string, table *ExtensionTable, allowAll bool) (*Layout, error) {
	if strings.TrimSpace(syncRoot) == "" {
		return nil, fmt.Errorf("sync root is required")
	}
	if table == nil {
		table = DefaultExtensionTable()
	}
	return &Layout{
		SyncRoot:                        filepath.Clean(syncRoot),
		WorkspaceSubfolder:              subfolder,
		Extensions:                      table,
		AllowAllSupportedFileExtensions: allowAll,
	}, nil
}

// Root is the local folder that mirrors the workspace root "/".
func (l *Layout) Root() string {
	return filepath.Join(l.SyncRoot, l.WorkspaceSubfolder)
}

// LocalDir returns the local folder mirroring a remote directory.
func (l *Layout) LocalDir(remotePath string) string {
	return filepath.Join(l.Root(), filepath.FromSlash(CleanRemotePath(remotePath)))
}

// LocalPath returns the local file for a remote notebook under mapping m.
func (l *Layout) LocalPath(remotePath string, m FileExtensionMapping) string {
	return l.LocalDir(remotePath) + m.Extension
}

// RemotePath maps a local path under Root back to a remote path, dropping
// the file extension when stripExt is set.
func (l *Layout) RemotePath(localPath string, stripExt bool) (string, error) {
	rel, err := filepath.Rel(l.Root(), localPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the sync folder %s", localPath, l.Root())
	}
	if stripExt {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	}
	return CleanRemotePath(filepath.ToSlash(rel)), nil
}

// CleanRemotePath returns an absolute, slash-separated path without a
// trailing slash. The empty path is the root.
func CleanRemotePath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// LastSegment returns the part of p after the last "/".
func LastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
