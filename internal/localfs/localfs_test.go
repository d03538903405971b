package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIsHiddenName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".gitignore", true},
		{".ipynb_checkpoints", true},
		{"etl.py", false},
		{".", false},
		{"..", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHiddenName(tt.name); got != tt.want {
			t.Errorf("IsHiddenName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if !IsHidden("/sync/Workspace/.hidden") {
		t.Error("IsHidden should look at the base name")
	}
}

func TestIsScratchName(t *testing.T) {
	for _, name := range []string{"etl.py~", ".etl.py.swp", "#etl.py#"} {
		if !IsScratchName(name) {
			t.Errorf("expected %q to be a scratch file", name)
		}
	}
	if IsScratchName("etl.py") {
		t.Error("etl.py is not a scratch file")
	}
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.py", "a.sql", ".hidden", "c.py~"} {
		mustWrite(t, filepath.Join(dir, f))
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := ListDirectory(context.Background(), dir, ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"a.sql", "b.py", "sub"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, names[i], want[i])
		}
	}
	if !entries[2].IsDir || entries[2].Size != 0 {
		t.Errorf("sub should be a directory with zero size: %+v", entries[2])
	}

	entries, err = ListDirectory(context.Background(), dir, ListOptions{IncludeHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("expected 4 entries with hidden included, got %d", len(entries))
	}

	if _, err := ListDirectory(context.Background(), filepath.Join(dir, "missing"), ListOptions{}); !IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestWalkFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "top.py"))
	mustWrite(t, filepath.Join(dir, "sub", "nested.scala"))
	mustWrite(t, filepath.Join(dir, ".ipynb_checkpoints", "top-checkpoint.ipynb"))
	mustWrite(t, filepath.Join(dir, "sub", "nested.scala~"))

	var files []string
	err := WalkFiles(context.Background(), dir, WalkOptions{SkipHiddenDirs: true}, func(e FileEntry) error {
		rel, _ := filepath.Rel(dir, e.Path)
		files = append(files, rel)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}

	files = nil
	_ = WalkFiles(context.Background(), dir, WalkOptions{IncludeHidden: true}, func(e FileEntry) error {
		files = append(files, e.Name)
		return nil
	})
	if len(files) != 3 {
		t.Errorf("expected 3 files with hidden included, got %v", files)
	}
}

func TestWalkStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.py"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Walk(ctx, dir, WalkOptions{}, func(FileEntry) error { return nil })
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExistenceProbes(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "etl.py")
	mustWrite(t, file)

	if !FileExists(file) || FileExists(dir) {
		t.Error("FileExists should only be true for regular files")
	}
	if !DirExists(dir) || DirExists(file) {
		t.Error("DirExists should only be true for directories")
	}
	if FileExists(filepath.Join(dir, "missing.py")) {
		t.Error("missing file reported as existing")
	}
}
