package diff

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStringsEqual(t *testing.T) {
	out, err := Strings("a\nb\n", "a\nb\n", "online", "local", 3)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("expected empty diff, got %q", out)
	}
}

func TestStringsChanged(t *testing.T) {
	out, err := Strings("print(1)\nprint(2)\n", "print(1)\nprint(3)\n", "online", "local", 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--- online", "+++ local", "-print(2)", "+print(3)", " print(1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	remote := filepath.Join(dir, "etl-123.py")
	local := filepath.Join(dir, "etl.py")
	if err := os.WriteFile(remote, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(local, []byte("x = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := Files(remote, local, "/Users/a/etl (online)", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "--- /Users/a/etl (online)") {
		t.Errorf("expected remote label in header:\n%s", out)
	}
	if !strings.Contains(out, "+++ "+local) {
		t.Errorf("expected local path as fallback label:\n%s", out)
	}

	if _, err := Files(filepath.Join(dir, "missing"), local, "", ""); err == nil {
		t.Error("expected error for missing online copy")
	}
}
