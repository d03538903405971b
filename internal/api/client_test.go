package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dbxsync/dbx-sync/internal/config"
	"github.com/dbxsync/dbx-sync/internal/models"
	"github.com/dbxsync/dbx-sync/internal/ratelimit"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Host: srv.URL, Token: "dapi-test", ProxyMode: "no-proxy"}
	c, err := NewClient(cfg, nil,
		WithRetry(1, time.Millisecond, 5*time.Millisecond),
		WithRateLimiter(ratelimit.NewRateLimiter(1000, 1000)))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRequiresConnection(t *testing.T) {
	if _, err := NewClient(&config.Config{Token: "t"}, nil); !errors.Is(err, config.ErrMissingHost) {
		t.Errorf("expected ErrMissingHost, got %v", err)
	}
	if _, err := NewClient(&config.Config{Host: "https://x"}, nil); !errors.Is(err, config.ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestListSendsAuthAndPath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2.0/workspace/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer dapi-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("path"); got != "/Users/a@b.com" {
			t.Errorf("path query = %q", got)
		}
		writeJSON(w, 200, models.ListResponse{Objects: []models.ObjectInfo{
			{Path: "/Users/a@b.com/etl", ObjectType: "NOTEBOOK", Language: "PYTHON", ObjectID: 1},
		}})
	}))

	objs, err := c.List(context.Background(), "/Users/a@b.com")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objs) != 1 || objs[0].Language != "PYTHON" {
		t.Errorf("unexpected objects %+v", objs)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     interface{}
		sentinel error
	}{
		{"not found code", 404, models.ErrorResponse{ErrorCode: CodeResourceDoesNotExist, Message: "Path (/x) doesn't exist."}, ErrResourceNotFound},
		{"already exists", 400, models.ErrorResponse{ErrorCode: CodeResourceAlreadyExists, Message: "exists"}, ErrResourceAlreadyExists},
		{"forbidden", 403, models.ErrorResponse{ErrorCode: "", Message: "Invalid access token."}, ErrPermissionDenied},
		{"bare 404", 404, "not json", ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))

			_, err := c.GetStatus(context.Background(), "/x")
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Errorf("expected *APIError with status %d, got %#v", tt.status, err)
			}
		})
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			writeJSON(w, 503, models.ErrorResponse{ErrorCode: "TEMPORARILY_UNAVAILABLE"})
			return
		}
		writeJSON(w, 200, models.ListResponse{})
	}))

	if _, err := c.List(context.Background(), "/"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestThrottleSetsCooldown(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(1000, 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, 429, models.ErrorResponse{ErrorCode: "REQUEST_LIMIT_EXCEEDED"})
	}))
	defer srv.Close()

	c, err := NewClient(&config.Config{Host: srv.URL, Token: "t"}, nil,
		WithRetry(0, time.Millisecond, time.Millisecond), WithRateLimiter(limiter))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(context.Background(), "/"); err == nil {
		t.Fatal("expected error for throttled request")
	}
	if limiter.CooldownRemaining() == 0 {
		t.Error("429 should put the limiter into cooldown")
	}
}

func TestRetryAfter(t *testing.T) {
	if retryAfter("3") != 3*time.Second {
		t.Error("Retry-After seconds not parsed")
	}
	if retryAfter("") != ratelimit.DefaultCooldown || retryAfter("soon") != ratelimit.DefaultCooldown {
		t.Error("invalid Retry-After should use the default cooldown")
	}
}

func TestDownloadItemWritesDecodedContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/2.0/workspace/export" || q.Get("format") != "SOURCE" || q.Get("path") != "/Shared/etl" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, 200, models.ExportResponse{Content: base64.StdEncoding.EncodeToString([]byte("print(1)\n"))})
	}))

	dest := filepath.Join(t.TempDir(), "nested", "etl.py")
	got, err := c.DownloadItem(context.Background(), "/Shared/etl", dest, workspace.FormatSource)
	if err != nil {
		t.Fatalf("DownloadItem failed: %v", err)
	}
	if got != dest {
		t.Errorf("returned %q, want %q", got, dest)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "print(1)\n" {
		t.Errorf("content = %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestUploadItemSource(t *testing.T) {
	var mu sync.Mutex
	var mkdirs []string
	var imported models.ImportRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/api/2.0/workspace/mkdirs":
			var req models.MkdirsRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			mkdirs = append(mkdirs, req.Path)
		case "/api/2.0/workspace/import":
			_ = json.NewDecoder(r.Body).Decode(&imported)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, 200, struct{}{})
	}))

	local := filepath.Join(t.TempDir(), "etl.py")
	if err := os.WriteFile(local, []byte("print(1)"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.UploadItem(context.Background(), local, "/Shared/jobs/etl", workspace.LanguagePython, true, workspace.FormatSource); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	if len(mkdirs) != 1 || mkdirs[0] != "/Shared/jobs" {
		t.Errorf("mkdirs = %v", mkdirs)
	}
	content, _ := base64.StdEncoding.DecodeString(imported.Content)
	if imported.Path != "/Shared/jobs/etl" || imported.Format != "SOURCE" || imported.Language != "PYTHON" ||
		!imported.Overwrite || string(content) != "print(1)" {
		t.Errorf("unexpected import request %+v", imported)
	}
}

func TestUploadItemContentSniffing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, struct{}{})
	}))
	dir := t.TempDir()

	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	f, _ := zw.Create("notebook.python")
	_, _ = f.Write([]byte("print(1)"))
	_ = zw.Close()

	archive := filepath.Join(dir, "etl.dbc")
	_ = os.WriteFile(archive, zipped.Bytes(), 0644)
	text := filepath.Join(dir, "etl.py")
	_ = os.WriteFile(text, []byte("print(1)"), 0644)
	fakeDBC := filepath.Join(dir, "fake.dbc")
	_ = os.WriteFile(fakeDBC, []byte("print(1)"), 0644)
	zipAsPy := filepath.Join(dir, "zip.py")
	_ = os.WriteFile(zipAsPy, zipped.Bytes(), 0644)

	ctx := context.Background()
	if err := c.UploadItem(ctx, archive, "/etl", workspace.LanguagePython, true, workspace.FormatDBC); err != nil {
		t.Errorf("zip DBC should upload: %v", err)
	}
	if err := c.UploadItem(ctx, text, "/etl", workspace.LanguagePython, true, workspace.FormatSource); err != nil {
		t.Errorf("text source should upload: %v", err)
	}
	if err := c.UploadItem(ctx, fakeDBC, "/etl", workspace.LanguagePython, true, workspace.FormatDBC); err == nil {
		t.Error("non-zip DBC should be rejected")
	}
	if err := c.UploadItem(ctx, zipAsPy, "/etl", workspace.LanguagePython, true, workspace.FormatSource); err == nil {
		t.Error("zip content as SOURCE should be rejected")
	}
}

func TestClientSatisfiesRemoteClient(t *testing.T) {
	var _ workspace.RemoteClient = (*Client)(nil)
}
