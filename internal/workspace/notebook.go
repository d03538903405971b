package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbxsync/dbx-sync/internal/constants"
	"github.com/dbxsync/dbx-sync/internal/localfs"
	"github.com/dbxsync/dbx-sync/internal/validation"
)

// Notebook is a notebook node with online/local sync state. Exactly one
// extension mapping is active at a time.
type Notebook struct {
	*Item
	language Language
	source   Source
	mapping  FileExtensionMapping
}

// NewNotebook builds a notebook node, resolves its local representation and
// binds the result. Without a local file the canonical mapping is bound.
func (e *Env) NewNotebook(path string, id int64, lang Language, source Source, parent Node) *Notebook {
	n := &Notebook{
		Item:     newItem(e, CleanRemotePath(path), TypeNotebook, id, parent),
		language: lang,
		source:   source,
	}
	n.mapping, _ = e.Layout.Extensions.Canonical(lang)
	if m, ok := n.ResolveLocalRepresentation(); ok {
		n.mapping = m
	}
	return n
}

func (n *Notebook) Language() Language            { return n.language }
func (n *Notebook) Source() Source                { return n.source }
func (n *Notebook) Mapping() FileExtensionMapping { return n.mapping }

// LocalPath is the local file under the active mapping.
func (n *Notebook) LocalPath() string {
	return n.env.Layout.LocalPath(n.path, n.mapping)
}

// OnlinePathExists is true unless the node was synthesized from a local file.
func (n *Notebook) OnlinePathExists() bool {
	return n.source == Online
}

// LocalPathExists checks the active mapping only.
func (n *Notebook) LocalPathExists() bool {
	return localfs.FileExists(n.LocalPath())
}

// ResolveLocalRepresentation looks for a local file of this notebook. The
// canonical extension is tried first; the other extensions of the language
// only when the layout allows all supported extensions. It does not bind.
func (n *Notebook) ResolveLocalRepresentation() (FileExtensionMapping, bool) {
	layout := n.env.Layout
	candidates := layout.Extensions.ForLanguage(n.language)
	if !layout.AllowAllSupportedFileExtensions && len(candidates) > 1 {
		candidates = candidates[:1]
	}
	for _, m := range candidates {
		if localfs.FileExists(layout.LocalPath(n.path, m)) {
			return m, true
		}
	}
	return FileExtensionMapping{}, false
}

// Bind makes m the active mapping. m must belong to the notebook language.
func (n *Notebook) Bind(m FileExtensionMapping) error {
	if m.Language != n.language {
		return fmt.Errorf("cannot bind %s mapping %s to %s notebook %s", m.Language, m.Extension, n.language, n.path)
	}
	n.mapping = m
	return nil
}

// State is recomputed from the filesystem on every call.
func (n *Notebook) State() SyncState {
	return StateOf(n.LocalPathExists(), n.OnlinePathExists())
}

func (n *Notebook) Tooltip() string {
	if s := n.State(); s != StateNeither {
		return fmt.Sprintf("%s - [%s]", n.path, s)
	}
	return n.path
}

func (n *Notebook) Description() string {
	return fmt.Sprintf("[%s] - %s", n.language, n.path)
}

func (n *Notebook) ContextValue() string {
	return ContextValueOf(n.LocalPathExists(), n.OnlinePathExists())
}

// Command routes activation through the click dispatcher.
func (n *Notebook) Command() *Command {
	return &Command{ID: constants.CommandClick, Title: "Open", Arguments: []any{n}}
}

// Children of a notebook is always empty.
func (n *Notebook) Children(ctx context.Context) ([]Node, error) {
	return nil, nil
}

// Download fetches the online notebook into its local path, or into a new
// temporary file with the same extension when asTempFile is set. A refresh
// of the parent is scheduled after a non-temporary download.
func (n *Notebook) Download(ctx context.Context, asTempFile bool) (string, error) {
	localPath, err := n.fetch(ctx, asTempFile)
	if err != nil {
		return "", err
	}
	if !asTempFile {
		n.RefreshParent()
	}
	return localPath, nil
}

func (n *Notebook) fetch(ctx context.Context, asTempFile bool) (string, error) {
	const op = "download"
	if !n.OnlinePathExists() {
		return "", newActionError(KindPrecondition, op, n.path, ErrNoRemoteCopy)
	}

	var target string
	if asTempFile {
		f, err := os.CreateTemp("", tempPattern(n.Label(), n.mapping.Extension))
		if err != nil {
			return "", newActionError(KindLocal, op, n.path, err)
		}
		target = f.Name()
		f.Close()
	} else {
		target = n.LocalPath()
		if err := validation.ValidatePathInDirectory(target, n.env.Layout.Root()); err != nil {
			return "", newActionError(KindLocal, op, n.path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", newActionError(KindLocal, op, n.path, err)
		}
	}

	localPath, err := n.env.Remote.DownloadItem(ctx, n.path, target, n.mapping.ExportFormat)
	if err != nil {
		if asTempFile {
			os.Remove(target)
		}
		return "", newActionError(KindRemote, op, n.path, err)
	}

	n.env.logger().Debug().Str("path", n.path).Str("local", localPath).Bool("temp", asTempFile).Msg("notebook downloaded")
	return localPath, nil
}

func tempPattern(label, ext string) string {
	label = strings.Map(func(r rune) rune {
		if r == '*' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, label)
	return label + "-*" + ext
}

// Upload pushes the local file with the active export format and language,
// overwriting the online copy. The refresh is scheduled only after the
// upload has completed.
func (n *Notebook) Upload(ctx context.Context) error {
	if err := n.push(ctx); err != nil {
		return err
	}
	n.RefreshParent()
	return nil
}

func (n *Notebook) push(ctx context.Context) error {
	const op = "upload"
	if !n.LocalPathExists() {
		return newActionError(KindPrecondition, op, n.path, ErrNoLocalCopy)
	}

	if err := n.env.Remote.UploadItem(ctx, n.LocalPath(), n.path, n.language, true, n.mapping.ExportFormat); err != nil {
		return newActionError(KindRemote, op, n.path, err)
	}

	n.env.logger().Debug().Str("path", n.path).Str("format", string(n.mapping.ExportFormat)).Msg("notebook uploaded")
	return nil
}

// Open opens the local copy in the host editor, downloading it first when
// missing. With showWarning an existing local copy is opened with a staleness
// warning.
func (n *Notebook) Open(ctx context.Context, showWarning bool) (string, error) {
	localPath := n.LocalPath()
	if !n.LocalPathExists() {
		p, err := n.Download(ctx, false)
		if err != nil {
			return "", err
		}
		localPath = p
	} else if showWarning {
		n.env.Host.Warn(fmt.Sprintf("Opening local copy of %s. It might differ from the online version.", n.path))
	}

	if err := n.env.Host.OpenFile(ctx, localPath); err != nil {
		return "", newActionError(KindHost, "open", n.path, err)
	}
	return localPath, nil
}

// Click is a no-op on single click and opens with a warning on double click.
func (n *Notebook) Click(ctx context.Context) {
	n.env.Clicks.Dispatch(ctx, n.path,
		func(context.Context) error { return nil },
		func(ctx context.Context) error {
			_, err := n.Open(ctx, true)
			return err
		})
}

// Compare downloads a temporary online copy and hands it to the host's diff
// view against the local file. Packaged notebook formats are refused before
// any I/O.
func (n *Notebook) Compare(ctx context.Context) error {
	const op = "compare"
	if n.mapping.IsNotebookFormat {
		return newActionError(KindPrecondition, op, n.path, ErrNotebookFormatCompare)
	}
	if !n.LocalPathExists() {
		return newActionError(KindPrecondition, op, n.path, ErrNoLocalCopy)
	}

	remoteCopy, err := n.Download(ctx, true)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Online <-> Local: %s", n.Label()+n.mapping.Extension)
	if err := n.env.Host.ShowDiff(ctx, remoteCopy, n.LocalPath(), title); err != nil {
		return newActionError(KindHost, op, n.path, err)
	}
	return nil
}
