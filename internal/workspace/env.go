package workspace

import (
	"context"

	"github.com/dbxsync/dbx-sync/internal/events"
	"github.com/dbxsync/dbx-sync/internal/logging"
	"github.com/dbxsync/dbx-sync/internal/models"
)

// RemoteClient is the slice of the workspace API the nodes need.
type RemoteClient interface {
	List(ctx context.Context, remotePath string) ([]models.ObjectInfo, error)
	DownloadItem(ctx context.Context, remotePath, localPath string, format ExportFormat) (string, error)
	UploadItem(ctx context.Context, localPath, remotePath string, language Language, overwrite bool, format ExportFormat) error
}

// Host is the presentation layer: editor, diff viewer, messages, clipboard.
type Host interface {
	OpenFile(ctx context.Context, localPath string) error
	// ShowDiff owns remoteCopy, a temporary file, and removes it once the
	// diff view no longer needs it. It may return before the view closes.
	ShowDiff(ctx context.Context, remoteCopy, localPath, title string) error
	Warn(message string)
	CopyToClipboard(text string) error
}

// Refresher schedules a tree refresh. A nil target refreshes the whole tree.
// Schedule returns immediately.
type Refresher interface {
	Schedule(target Node)
}

// ClickDispatcher disambiguates single and double clicks on the same key.
type ClickDispatcher interface {
	Dispatch(ctx context.Context, key string, single, double func(context.Context) error)
}

// Env carries the collaborators shared by every node of a tree.
type Env struct {
	Remote    RemoteClient
	Host      Host
	Refresher Refresher
	Clicks    ClickDispatcher
	Layout    *Layout
	Logger    *logging.Logger

	// Events receives per-item transfer events of directory syncs. Optional.
	Events *events.EventBus

	// MaxConcurrent bounds recursive directory transfers.
	MaxConcurrent int
}

func (e *Env) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger
}

// NewNode builds the node for a remote object. Notebooks get their local
// representation resolved and bound here.
func (e *Env) NewNode(info models.ObjectInfo, parent Node) (Node, error) {
	p := CleanRemotePath(info.Path)
	switch t := ParseObjectType(info.ObjectType); t {
	case TypeNotebook:
		lang, err := ParseLanguage(info.Language)
		if err != nil {
			return nil, err
		}
		return e.NewNotebook(p, info.ObjectID, lang, Online, parent), nil
	case TypeDirectory, TypeRepo:
		return e.newDirectory(p, t, info.ObjectID, Online, parent), nil
	default:
		return e.newLeaf(p, t, info.ObjectID, parent), nil
	}
}

// Root returns the node for the workspace root "/".
func (e *Env) Root() *Directory {
	return e.newDirectory("/", TypeDirectory, 0, Online, nil)
}
