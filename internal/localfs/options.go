package localfs

// ListOptions configures ListDirectory.
type ListOptions struct {
	// IncludeHidden includes dot-prefixed entries. Default false.
	IncludeHidden bool
}

// WalkOptions configures Walk and WalkFiles.
type WalkOptions struct {
	// IncludeHidden includes hidden files and directories in the walk.
	IncludeHidden bool

	// SkipHiddenDirs skips descending into hidden directories entirely.
	// Only meaningful when IncludeHidden is false.
	SkipHiddenDirs bool
}
