package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dbxsync/dbx-sync/internal/logging"
)

// editorHost implements workspace.Host for serve. It never starts a process:
// stdin and stdout belong to the protocol, so opens, diffs, warnings and
// clipboard writes become events for the editor to act on.
type editorHost struct {
	emit   func(v any)
	logger *logging.Logger

	mu    sync.Mutex
	diffs map[string]bool // online copies held by open diff views
}

func newEditorHost(emit func(v any), logger *logging.Logger) *editorHost {
	return &editorHost{emit: emit, logger: logger, diffs: make(map[string]bool)}
}

func (h *editorHost) OpenFile(ctx context.Context, localPath string) error {
	h.emit(serveEvent{Event: "open", Local: localPath})
	return nil
}

// ShowDiff keeps remoteCopy until the editor sends closeDiff for it or the
// server shuts down.
func (h *editorHost) ShowDiff(ctx context.Context, remoteCopy, localPath, title string) error {
	h.mu.Lock()
	h.diffs[remoteCopy] = true
	h.mu.Unlock()

	h.emit(serveEvent{Event: "diff", Remote: remoteCopy, Local: localPath, Title: title})
	return nil
}

func (h *editorHost) Warn(message string) {
	h.emit(serveEvent{Event: "warning", Message: message})
}

func (h *editorHost) CopyToClipboard(text string) error {
	h.emit(serveEvent{Event: "clipboard", Text: text})
	return nil
}

// closeDiff removes an online copy previously handed out by ShowDiff. Paths
// the host does not hold are refused.
func (h *editorHost) closeDiff(remoteCopy string) error {
	h.mu.Lock()
	held := h.diffs[remoteCopy]
	delete(h.diffs, remoteCopy)
	h.mu.Unlock()

	if !held {
		return fmt.Errorf("no diff view holds %s", remoteCopy)
	}
	if err := os.Remove(remoteCopy); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// closeAll removes every online copy still held.
func (h *editorHost) closeAll() {
	h.mu.Lock()
	paths := make([]string, 0, len(h.diffs))
	for p := range h.diffs {
		paths = append(paths, p)
	}
	h.diffs = make(map[string]bool)
	h.mu.Unlock()

	sort.Strings(paths)
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			h.logger.Warn().Err(err).Str("path", p).Msg("failed to remove online copy")
		}
	}
}
