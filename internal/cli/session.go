package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dbxsync/dbx-sync/internal/api"
	"github.com/dbxsync/dbx-sync/internal/config"
	"github.com/dbxsync/dbx-sync/internal/events"
	httpclient "github.com/dbxsync/dbx-sync/internal/http"
	"github.com/dbxsync/dbx-sync/internal/localfs"
	"github.com/dbxsync/dbx-sync/internal/tree"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// session wires one command invocation: config, API client, node
// environment and tree controller.
type session struct {
	cfg    *config.Config
	client *api.Client
	bus    *events.EventBus
	env    *workspace.Env
	ctrl   *tree.Controller
}

// loadConfig merges settings, the connection profile and global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		SettingsFile: cfgFile,
		ProfileFile:  profileFile,
		ProfileName:  profileName,
		Host:         hostFlag,
		Token:        tokenFlag,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newSessionFromConfig(cfg)
}

func newSessionFromConfig(cfg *config.Config) (*session, error) {
	log := GetLogger()

	if httpclient.NeedsProxyPassword(cfg) {
		pw, err := promptProxyPassword(cfg.ProxyUser)
		if err != nil {
			return nil, err
		}
		cfg.ProxyPassword = pw
	}

	table, err := workspace.NewExtensionTable(cfg.ExportFormats)
	if err != nil {
		return nil, fmt.Errorf("invalid export_formats: %w", err)
	}
	layout, err := workspace.NewLayout(cfg.SyncRoot, cfg.WorkspaceSubfolder, table, cfg.AllowAllSupportedFileExtensions)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	bus := events.NewEventBus(0)
	env := &workspace.Env{
		Remote:        client,
		Host:          newTerminalHost(cfg.Editor, cfg.DiffTool, log),
		Layout:        layout,
		Logger:        log,
		Events:        bus,
		MaxConcurrent: cfg.MaxConcurrent,
	}
	ctrl := tree.NewController(env, bus, tree.Options{
		RefreshDelay:      cfg.RefreshDelay,
		DoubleClickWindow: cfg.DoubleClickWindow,
	})

	log.Debug().Str("host", cfg.Host).Str("sync_root", layout.Root()).Msg("session ready")
	return &session{cfg: cfg, client: client, bus: bus, env: env, ctrl: ctrl}, nil
}

// Close fires pending refreshes and releases the event bus.
func (s *session) Close() {
	s.ctrl.Close()
	s.bus.Close()
}

// remotePath accepts a workspace path ("/Users/a/etl") or a file or folder
// inside the local sync folder and returns the workspace path.
func (s *session) remotePath(arg string) (string, error) {
	return resolveRemotePath(s.env.Layout, arg)
}

func resolveRemotePath(layout *workspace.Layout, arg string) (string, error) {
	if arg == "" {
		return "/", nil
	}
	abs, err := filepath.Abs(arg)
	if err == nil && (abs == layout.Root() || strings.HasPrefix(abs, layout.Root()+string(filepath.Separator))) {
		return layout.RemotePath(abs, localfs.FileExists(abs))
	}
	if !strings.HasPrefix(filepath.ToSlash(arg), "/") {
		return "", fmt.Errorf("%s is neither a workspace path nor inside the sync folder %s", arg, layout.Root())
	}
	return workspace.CleanRemotePath(filepath.ToSlash(arg)), nil
}

func (s *session) find(ctx context.Context, arg string) (workspace.Node, error) {
	p, err := s.remotePath(arg)
	if err != nil {
		return nil, err
	}
	return s.ctrl.Find(ctx, p)
}

func (s *session) notebook(ctx context.Context, arg string) (*workspace.Notebook, error) {
	node, err := s.find(ctx, arg)
	if err != nil {
		return nil, err
	}
	nb, ok := node.(*workspace.Notebook)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a notebook", node.Path(), strings.ToLower(string(node.Type())))
	}
	return nb, nil
}

func (s *session) directory(ctx context.Context, arg string) (*workspace.Directory, error) {
	node, err := s.find(ctx, arg)
	if err != nil {
		return nil, err
	}
	dir, ok := node.(*workspace.Directory)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a directory", node.Path(), strings.ToLower(string(node.Type())))
	}
	return dir, nil
}
