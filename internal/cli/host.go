package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/dbxsync/dbx-sync/internal/diff"
	"github.com/dbxsync/dbx-sync/internal/logging"
)

// terminalHost implements workspace.Host for the command line. Files open in
// the configured editor; diffs go to diff_tool or are printed as unified
// diffs.
type terminalHost struct {
	editor   string
	diffTool string
	out      io.Writer
	errOut   io.Writer
	logger   *logging.Logger

	run       func(ctx context.Context, argv []string) error
	clipboard func(text string) error
}

func newTerminalHost(editor, diffTool string, logger *logging.Logger) *terminalHost {
	return &terminalHost{
		editor:    editor,
		diffTool:  diffTool,
		out:       os.Stdout,
		errOut:    os.Stderr,
		logger:    logger,
		run:       runAttached,
		clipboard: clipboard.WriteAll,
	}
}

func runAttached(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// OpenFile runs the editor on localPath. Without an editor the path is printed.
func (h *terminalHost) OpenFile(ctx context.Context, localPath string) error {
	argv := strings.Fields(h.editor)
	if len(argv) == 0 {
		fmt.Fprintln(h.out, localPath)
		return nil
	}
	h.logger.Debug().Str("editor", argv[0]).Str("path", localPath).Msg("opening file")
	if err := h.run(ctx, append(argv, localPath)); err != nil {
		return fmt.Errorf("editor %s failed: %w", argv[0], err)
	}
	return nil
}

// ShowDiff runs diff_tool, which may reference {remote}, {local} and {title}.
// A tool without placeholders gets the two paths appended. The online copy
// is removed when the tool exits.
func (h *terminalHost) ShowDiff(ctx context.Context, remoteCopy, localPath, title string) error {
	defer os.Remove(remoteCopy)
	if argv := diffToolArgs(h.diffTool, remoteCopy, localPath, title); len(argv) > 0 {
		h.logger.Debug().Str("tool", argv[0]).Msg("running diff tool")
		if err := h.run(ctx, argv); err != nil {
			// diff(1) exits 1 when the files differ
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				return nil
			}
			return fmt.Errorf("diff tool %s failed: %w", argv[0], err)
		}
		return nil
	}

	out, err := diff.Files(remoteCopy, localPath, "online", localPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(h.out, title)
	if out == "" {
		fmt.Fprintln(h.out, "No differences.")
		return nil
	}
	fmt.Fprint(h.out, out)
	return nil
}

func diffToolArgs(tool, remoteCopy, localPath, title string) []string {
	fields := strings.Fields(tool)
	if len(fields) == 0 {
		return nil
	}

	r := strings.NewReplacer("{remote}", remoteCopy, "{local}", localPath, "{title}", title)
	substituted := false
	argv := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		if strings.Contains(f, "{remote}") || strings.Contains(f, "{local}") || strings.Contains(f, "{title}") {
			substituted = true
		}
		argv = append(argv, r.Replace(f))
	}
	if !substituted {
		argv = append(argv, remoteCopy, localPath)
	}
	return argv
}

func (h *terminalHost) Warn(message string) {
	h.logger.Debug().Str("warning", message).Msg("host warning")
	fmt.Fprintf(h.errOut, "Warning: %s\n", message)
}

func (h *terminalHost) CopyToClipboard(text string) error {
	if err := h.clipboard(text); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	return nil
}
