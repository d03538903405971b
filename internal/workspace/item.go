package workspace

import (
	"context"
	"fmt"
	"strings"
)

// Node is one entry of the workspace tree. Presentation adapters render it;
// actions live on the concrete types.
type Node interface {
	Path() string
	Type() ObjectType
	ID() int64
	Parent() Node

	Label() string
	Icon(theme Theme) string
	Tooltip() string
	Description() string
	ContextValue() string
	Command() *Command
	Collapsible() bool

	Children(ctx context.Context) ([]Node, error)
	CopyPathToClipboard() error
	RefreshParent()
}

// Command is invoked by the presentation layer when a node is activated.
type Command struct {
	ID        string
	Title     string
	Arguments []any
}

// Item is the generic resource node. Concrete node kinds embed it.
type Item struct {
	path       string
	objectType ObjectType
	objectID   int64
	parent     Node // non-owning
	env        *Env
}

func newItem(env *Env, path string, t ObjectType, id int64, parent Node) *Item {
	return &Item{path: path, objectType: t, objectID: id, parent: parent, env: env}
}

func (i *Item) Path() string     { return i.path }
func (i *Item) Type() ObjectType { return i.objectType }
func (i *Item) ID() int64        { return i.objectID }
func (i *Item) Parent() Node     { return i.parent }

// Label is the last path segment; the root is "/".
func (i *Item) Label() string {
	if i.path == "/" {
		return "/"
	}
	return LastSegment(i.path)
}

// Icon returns the icon resource for the item type under theme.
func (i *Item) Icon(theme Theme) string {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	return fmt.Sprintf("resources/%s/%s.png", theme, strings.ToLower(string(i.objectType)))
}

func (i *Item) Tooltip() string      { return i.path }
func (i *Item) Description() string  { return "" }
func (i *Item) ContextValue() string { return strings.ToLower(string(i.objectType)) }
func (i *Item) Command() *Command    { return nil }
func (i *Item) Collapsible() bool    { return false }

// Children is only meaningful for containers.
func (i *Item) Children(ctx context.Context) ([]Node, error) {
	return nil, newActionError(KindNotImplemented, "children", i.path, ErrNotImplemented)
}

// CopyPathToClipboard puts the remote path on the host clipboard.
func (i *Item) CopyPathToClipboard() error {
	if err := i.env.Host.CopyToClipboard(i.path); err != nil {
		return newActionError(KindHost, "copy path", i.path, err)
	}
	return nil
}

// RefreshParent schedules a refresh of the parent, or of the whole tree when
// there is none.
func (i *Item) RefreshParent() {
	if i.env.Refresher == nil {
		return
	}
	i.env.Refresher.Schedule(i.parent)
}

// Leaf is a workspace file or library. It has no children and no sync state.
type Leaf struct {
	*Item
}

func (e *Env) newLeaf(path string, t ObjectType, id int64, parent Node) *Leaf {
	return &Leaf{Item: newItem(e, path, t, id, parent)}
}

// Children of a leaf is always empty.
func (l *Leaf) Children(ctx context.Context) ([]Node, error) {
	return nil, nil
}

// NewItem returns a bare resource node. Concrete kinds come from NewNode.
func NewItem(env *Env, path string, t ObjectType, id int64, parent Node) *Item {
	return newItem(env, CleanRemotePath(path), t, id, parent)
}
