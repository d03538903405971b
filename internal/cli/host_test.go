package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dbxsync/dbx-sync/internal/logging"
)

type recordedRun struct {
	argv [][]string
	err  error
}

func (r *recordedRun) run(ctx context.Context, argv []string) error {
	r.argv = append(r.argv, argv)
	return r.err
}

func newTestHost(editor, diffTool string) (*terminalHost, *recordedRun, *bytes.Buffer, *bytes.Buffer) {
	rec := &recordedRun{}
	var out, errOut bytes.Buffer
	h := newTerminalHost(editor, diffTool, logging.Nop())
	h.out = &out
	h.errOut = &errOut
	h.run = rec.run
	return h, rec, &out, &errOut
}

func TestDiffToolArgs(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want []string
	}{
		{"empty", "", nil},
		{"appends paths", "diff -u", []string{"diff", "-u", "/tmp/r.py", "/w/l.py"}},
		{"placeholders", "code --diff {remote} {local}", []string{"code", "--diff", "/tmp/r.py", "/w/l.py"}},
		{"title", "meld --label={title} {local} {remote}", []string{"meld", "--label=T", "/w/l.py", "/tmp/r.py"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diffToolArgs(tt.tool, "/tmp/r.py", "/w/l.py", "T")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("diffToolArgs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenFileRunsEditor(t *testing.T) {
	h, rec, out, _ := newTestHost("code --wait", "")
	if err := h.OpenFile(context.Background(), "/w/etl.py"); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"code", "--wait", "/w/etl.py"}}
	if !reflect.DeepEqual(rec.argv, want) {
		t.Errorf("argv = %v, want %v", rec.argv, want)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}

	rec.err = errors.New("exit status 2")
	if err := h.OpenFile(context.Background(), "/w/etl.py"); err == nil {
		t.Error("expected editor failure to be returned")
	}
}

func TestOpenFileWithoutEditorPrintsPath(t *testing.T) {
	h, rec, out, _ := newTestHost("", "")
	if err := h.OpenFile(context.Background(), "/w/etl.py"); err != nil {
		t.Fatal(err)
	}
	if len(rec.argv) != 0 {
		t.Error("no command should run without an editor")
	}
	if strings.TrimSpace(out.String()) != "/w/etl.py" {
		t.Errorf("output = %q", out.String())
	}
}

func TestShowDiffFallsBackToUnifiedDiff(t *testing.T) {
	dir := t.TempDir()
	remote := filepath.Join(dir, "etl-1.py")
	local := filepath.Join(dir, "etl.py")
	os.WriteFile(remote, []byte("a = 1\n"), 0644)
	os.WriteFile(local, []byte("a = 2\n"), 0644)

	h, _, out, _ := newTestHost("", "")
	if err := h.ShowDiff(context.Background(), remote, local, "Online <-> Local: etl.py"); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{"Online <-> Local: etl.py", "--- online", "-a = 1", "+a = 2"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}

	if _, err := os.Stat(remote); !os.IsNotExist(err) {
		t.Error("online copy should be removed once the diff is printed")
	}

	out.Reset()
	os.WriteFile(remote, []byte("a = 1\n"), 0644)
	os.WriteFile(local, []byte("a = 1\n"), 0644)
	if err := h.ShowDiff(context.Background(), remote, local, "t"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No differences.") {
		t.Errorf("expected no-difference message, got %q", out.String())
	}
}

func TestShowDiffRunsTool(t *testing.T) {
	remote := filepath.Join(t.TempDir(), "etl-1.py")
	os.WriteFile(remote, []byte("a = 1\n"), 0644)
	h, rec, _, _ := newTestHost("", "diff -u")
	if err := h.ShowDiff(context.Background(), remote, "/w/l.py", "t"); err != nil {
		t.Fatal(err)
	}
	if len(rec.argv) != 1 || rec.argv[0][0] != "diff" {
		t.Errorf("argv = %v", rec.argv)
	}
	if _, err := os.Stat(remote); !os.IsNotExist(err) {
		t.Error("online copy should be removed after the tool exits")
	}
}

func TestWarnAndClipboard(t *testing.T) {
	h, _, _, errOut := newTestHost("", "")
	h.Warn("stale copy")
	if !strings.Contains(errOut.String(), "Warning: stale copy") {
		t.Errorf("warning output = %q", errOut.String())
	}

	var copied string
	h.clipboard = func(s string) error { copied = s; return nil }
	if err := h.CopyToClipboard("/Users/a/etl"); err != nil || copied != "/Users/a/etl" {
		t.Errorf("CopyToClipboard = %v, copied %q", err, copied)
	}

	h.clipboard = func(string) error { return errors.New("no xclip") }
	if err := h.CopyToClipboard("/x"); err == nil || !strings.Contains(err.Error(), "clipboard unavailable") {
		t.Errorf("expected wrapped clipboard error, got %v", err)
	}
}
