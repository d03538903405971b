package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/dbxsync/dbx-sync/internal/models"
)

func TestLabelIsLastSegment(t *testing.T) {
	te := newTestEnv(t, false)
	for p, want := range map[string]string{
		"/Users/a@b.com/etl": "etl",
		"/Shared":            "Shared",
		"/":                  "/",
	} {
		if got := NewItem(te.Env, p, TypeFile, 0, nil).Label(); got != want {
			t.Errorf("Label(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestItemIcon(t *testing.T) {
	te := newTestEnv(t, false)
	it := NewItem(te.Env, "/Shared/lib", TypeLibrary, 0, nil)
	if got := it.Icon(ThemeDark); got != "resources/dark/library.png" {
		t.Errorf("Icon(dark) = %q", got)
	}
	if got := it.Icon(""); got != "resources/light/library.png" {
		t.Errorf("Icon(default) = %q", got)
	}
}

func TestBaseItemChildrenNotImplemented(t *testing.T) {
	te := newTestEnv(t, false)
	it := NewItem(te.Env, "/Shared/x", TypeFile, 0, nil)

	_, err := it.Children(context.Background())
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if kind, _ := KindOf(err); kind != KindNotImplemented {
		t.Errorf("kind = %v", kind)
	}
	if it.Command() != nil || it.Collapsible() {
		t.Error("base item has no command and is not collapsible")
	}
}

func TestNodeFactory(t *testing.T) {
	te := newTestEnv(t, false)
	root := te.Root()
	tests := []struct {
		info        models.ObjectInfo
		collapsible bool
		wantType    ObjectType
	}{
		{notebookInfo("/a/nb", LanguageR), false, TypeNotebook},
		{dirInfo("/a/dir"), true, TypeDirectory},
		{models.ObjectInfo{Path: "/Repos/x", ObjectType: "REPO"}, true, TypeRepo},
		{models.ObjectInfo{Path: "/a/lib.jar", ObjectType: "LIBRARY"}, false, TypeLibrary},
		{models.ObjectInfo{Path: "/a/data.csv", ObjectType: "FILE"}, false, TypeFile},
		{models.ObjectInfo{Path: "/a/unknown"}, true, TypeDirectory},
	}
	for _, tt := range tests {
		n, err := te.NewNode(tt.info, root)
		if err != nil {
			t.Fatalf("NewNode(%+v): %v", tt.info, err)
		}
		if n.Type() != tt.wantType || n.Collapsible() != tt.collapsible {
			t.Errorf("%s: type=%s collapsible=%v", tt.info.Path, n.Type(), n.Collapsible())
		}
		if n.Parent() != Node(root) {
			t.Errorf("%s: parent not set", tt.info.Path)
		}
		if !n.Collapsible() {
			children, err := n.Children(context.Background())
			if err != nil || children != nil {
				t.Errorf("%s: leaf Children = %v, %v", tt.info.Path, children, err)
			}
		}
	}

	if _, err := te.NewNode(models.ObjectInfo{Path: "/a/x", ObjectType: "NOTEBOOK", Language: "COBOL"}, nil); err == nil {
		t.Error("expected error for notebook with unknown language")
	}
}

func TestCopyPathToClipboard(t *testing.T) {
	te := newTestEnv(t, false)
	nb := te.NewNotebook("/Shared/etl", 1, LanguagePython, Online, nil)
	if err := nb.CopyPathToClipboard(); err != nil {
		t.Fatal(err)
	}
	if te.host.clipboard != "/Shared/etl" {
		t.Errorf("clipboard = %q", te.host.clipboard)
	}
}

func TestRefreshParentTargetsRootWhenOrphan(t *testing.T) {
	te := newTestEnv(t, false)
	orphan := NewItem(te.Env, "/x", TypeFile, 0, nil)
	orphan.RefreshParent()

	parent := te.Root()
	child := NewItem(te.Env, "/y", TypeFile, 0, parent)
	child.RefreshParent()

	if te.refresher.count() != 2 {
		t.Fatalf("expected 2 refreshes, got %d", te.refresher.count())
	}
	if te.refresher.targets[0] != nil {
		t.Error("orphan should refresh the whole tree")
	}
	if te.refresher.targets[1] != Node(parent) {
		t.Error("child should refresh its parent")
	}
}
