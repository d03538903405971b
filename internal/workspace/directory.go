package workspace

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbxsync/dbx-sync/internal/localfs"
	"github.com/dbxsync/dbx-sync/internal/validation"
)

// Directory is a workspace folder or repo. Local directories exist only in
// the sync folder and are listed from disk.
type Directory struct {
	*Item
	source Source
}

func (e *Env) newDirectory(p string, t ObjectType, id int64, source Source, parent Node) *Directory {
	return &Directory{Item: newItem(e, p, t, id, parent), source: source}
}

// NewDirectory builds a directory node for p.
func (e *Env) NewDirectory(p string, source Source, parent Node) *Directory {
	return e.newDirectory(CleanRemotePath(p), TypeDirectory, 0, source, parent)
}

func (d *Directory) Source() Source    { return d.source }
func (d *Directory) Collapsible() bool { return true }

// LocalDir is the folder mirroring this directory in the sync folder.
func (d *Directory) LocalDir() string {
	return d.env.Layout.LocalDir(d.path)
}

func (d *Directory) LocalPathExists() bool {
	return localfs.DirExists(d.LocalDir())
}

func (d *Directory) OnlinePathExists() bool {
	return d.source == Online
}

func (d *Directory) Tooltip() string {
	if s := StateOf(d.LocalPathExists(), d.OnlinePathExists()); s != StateNeither {
		return fmt.Sprintf("%s - [%s]", d.path, s)
	}
	return d.path
}

func (d *Directory) ContextValue() string {
	return ContextValueOf(d.LocalPathExists(), d.OnlinePathExists())
}

// Children lists the remote objects of the directory, directories first,
// plus notebooks and folders that exist only in the local sync folder.
func (d *Directory) Children(ctx context.Context) ([]Node, error) {
	var nodes []Node
	remote := make(map[string]bool)

	if d.source == Online {
		objects, err := d.env.Remote.List(ctx, d.path)
		if err != nil {
			return nil, newActionError(KindRemote, "list", d.path, err)
		}
		for _, obj := range objects {
			if err := validation.ValidateRemoteChild(d.path, obj.Path); err != nil {
				d.env.logger().Warn().Err(err).Msg("skipping workspace object with unsafe path")
				continue
			}
			n, err := d.env.NewNode(obj, d)
			if err != nil {
				d.env.logger().Warn().Err(err).Str("path", obj.Path).Msg("skipping workspace object")
				continue
			}
			remote[n.Path()] = true
			nodes = append(nodes, n)
		}
	}

	local, err := d.localOnlyChildren(ctx, remote)
	if err != nil {
		return nil, newActionError(KindLocal, "list", d.path, err)
	}
	nodes = append(nodes, local...)

	SortNodes(nodes)
	return nodes, nil
}

// localOnlyChildren scans the local folder for entries without an online
// counterpart. Only notebook files under an accepted extension are listed;
// .dbc archives are skipped because their language cannot be told from the
// name.
func (d *Directory) localOnlyChildren(ctx context.Context, remote map[string]bool) ([]Node, error) {
	entries, err := localfs.ListDirectory(ctx, d.LocalDir(), localfs.ListOptions{})
	if err != nil {
		if localfs.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	layout := d.env.Layout
	var nodes []Node
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir {
			rp := path.Join(d.path, entry.Name)
			if !remote[rp] && !seen[rp] {
				seen[rp] = true
				nodes = append(nodes, d.env.newDirectory(rp, TypeDirectory, 0, Local, d))
			}
			continue
		}

		m, ok := localNotebookMapping(layout, entry.Name)
		if !ok {
			continue
		}
		rp := path.Join(d.path, strings.TrimSuffix(entry.Name, m.Extension))
		if remote[rp] || seen[rp] {
			continue
		}
		seen[rp] = true
		nodes = append(nodes, d.env.NewNotebook(rp, 0, m.Language, Local, d))
	}
	return nodes, nil
}

// localNotebookMapping returns the mapping a local file is recognised under.
func localNotebookMapping(layout *Layout, name string) (FileExtensionMapping, bool) {
	m, ok := layout.Extensions.ForFile(name)
	if !ok || filepath.Ext(name) != m.Extension {
		return FileExtensionMapping{}, false
	}
	if !layout.AllowAllSupportedFileExtensions && !layout.Extensions.IsCanonical(m) {
		return FileExtensionMapping{}, false
	}
	return m, true
}

// SortNodes orders collapsible nodes first, then by label.
func SortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		ci, cj := nodes[i].Collapsible(), nodes[j].Collapsible()
		if ci != cj {
			return ci
		}
		return strings.ToLower(nodes[i].Label()) < strings.ToLower(nodes[j].Label())
	})
}
