package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dbxsync/dbx-sync/internal/models"
)

type uploadCall struct {
	localPath  string
	remotePath string
	language   Language
	overwrite  bool
	format     ExportFormat
}

type fakeRemote struct {
	mu        sync.Mutex
	listings  map[string][]models.ObjectInfo
	listErr   map[string]error
	content   map[string]string
	failPaths map[string]error
	downloads []string
	uploads   []uploadCall
	log       *callLog
}

func newFakeRemote(log *callLog) *fakeRemote {
	return &fakeRemote{
		listings:  make(map[string][]models.ObjectInfo),
		listErr:   make(map[string]error),
		content:   make(map[string]string),
		failPaths: make(map[string]error),
		log:       log,
	}
}

func (f *fakeRemote) List(ctx context.Context, remotePath string) ([]models.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[remotePath]; err != nil {
		return nil, err
	}
	return f.listings[remotePath], nil
}

func (f *fakeRemote) DownloadItem(ctx context.Context, remotePath, localPath string, format ExportFormat) (string, error) {
	f.mu.Lock()
	f.downloads = append(f.downloads, remotePath)
	err := f.failPaths[remotePath]
	content := f.content[remotePath]
	f.mu.Unlock()

	f.log.add("download")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(localPath, []byte(content), 0644); err != nil {
		return "", err
	}
	return localPath, nil
}

func (f *fakeRemote) UploadItem(ctx context.Context, localPath, remotePath string, language Language, overwrite bool, format ExportFormat) error {
	f.mu.Lock()
	f.uploads = append(f.uploads, uploadCall{localPath, remotePath, language, overwrite, format})
	err := f.failPaths[remotePath]
	f.mu.Unlock()

	f.log.add("upload")
	return err
}

func (f *fakeRemote) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloads)
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeHost struct {
	opened    []string
	warnings  []string
	clipboard string
	diffs     []diffCall
	openErr   error
}

type diffCall struct {
	remoteCopy, localPath, title string
	remoteContent                string
}

func (h *fakeHost) OpenFile(ctx context.Context, localPath string) error {
	h.opened = append(h.opened, localPath)
	return h.openErr
}

// ShowDiff keeps remoteCopy like an editor diff view would; callers clean up.
func (h *fakeHost) ShowDiff(ctx context.Context, remoteCopy, localPath, title string) error {
	data, err := os.ReadFile(remoteCopy)
	if err != nil {
		return err
	}
	h.diffs = append(h.diffs, diffCall{remoteCopy, localPath, title, string(data)})
	return nil
}

func (h *fakeHost) Warn(message string) { h.warnings = append(h.warnings, message) }

func (h *fakeHost) CopyToClipboard(text string) error {
	if text == "" {
		return errors.New("empty clipboard text")
	}
	h.clipboard = text
	return nil
}

type recordingRefresher struct {
	mu      sync.Mutex
	targets []Node
	log     *callLog
}

func (r *recordingRefresher) Schedule(target Node) {
	r.mu.Lock()
	r.targets = append(r.targets, target)
	r.mu.Unlock()
	r.log.add("refresh")
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.targets)
}

// immediateClicks runs the handler selected by double without waiting.
type immediateClicks struct {
	double bool
	err    error
}

func (c *immediateClicks) Dispatch(ctx context.Context, key string, single, double func(context.Context) error) {
	if c.double {
		c.err = double(ctx)
	} else {
		c.err = single(ctx)
	}
}

type testEnv struct {
	*Env
	remote    *fakeRemote
	host      *fakeHost
	refresher *recordingRefresher
	clicks    *immediateClicks
	log       *callLog
}

func newTestEnv(t *testing.T, allowAll bool) *testEnv {
	t.Helper()
	layout, err := NewLayout(t.TempDir(), "Workspace", nil, allowAll)
	if err != nil {
		t.Fatal(err)
	}
	log := &callLog{}
	te := &testEnv{
		remote:    newFakeRemote(log),
		host:      &fakeHost{},
		refresher: &recordingRefresher{log: log},
		clicks:    &immediateClicks{},
		log:       log,
	}
	te.Env = &Env{
		Remote:        te.remote,
		Host:          te.host,
		Refresher:     te.refresher,
		Clicks:        te.clicks,
		Layout:        layout,
		MaxConcurrent: 2,
	}
	return te
}

// writeLocal creates the local file for remotePath with the given extension.
func (te *testEnv) writeLocal(t *testing.T, remotePath, ext, content string) string {
	t.Helper()
	p := te.Layout.LocalDir(remotePath) + ext
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func notebookInfo(p string, lang Language) models.ObjectInfo {
	return models.ObjectInfo{Path: p, ObjectType: string(TypeNotebook), Language: string(lang)}
}

func dirInfo(p string) models.ObjectInfo {
	return models.ObjectInfo{Path: p, ObjectType: string(TypeDirectory)}
}
