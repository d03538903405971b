package tree

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dbxsync/dbx-sync/internal/constants"
	"github.com/dbxsync/dbx-sync/internal/events"
	"github.com/dbxsync/dbx-sync/internal/logging"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// ErrNodeNotFound is returned by Find when no node has the path.
var ErrNodeNotFound = errors.New("workspace node not found")

// Options tunes the controller timers. Zero values use the defaults.
type Options struct {
	RefreshDelay      time.Duration
	DoubleClickWindow time.Duration
}

// Controller holds the tree rooted at the workspace root, caches listings
// and owns the refresh scheduler and click dispatcher wired into env.
type Controller struct {
	env       *workspace.Env
	bus       *events.EventBus
	root      *workspace.Directory
	refresher *Refresher
	clicks    *Clicks
	logger    *logging.Logger

	mu    sync.Mutex
	cache map[string][]workspace.Node
}

// NewController wires its refresher and click dispatcher into env.
// bus may be nil.
func NewController(env *workspace.Env, bus *events.EventBus, opts Options) *Controller {
	if opts.RefreshDelay <= 0 {
		opts.RefreshDelay = constants.DefaultRefreshDelay
	}
	if opts.DoubleClickWindow <= 0 {
		opts.DoubleClickWindow = constants.DefaultDoubleClickWindow
	}
	logger := env.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	c := &Controller{
		env:    env,
		bus:    bus,
		logger: logger,
		cache:  make(map[string][]workspace.Node),
	}
	c.refresher = NewRefresher(opts.RefreshDelay, c.onRefresh)
	c.clicks = NewClicks(opts.DoubleClickWindow, func(key string, err error) {
		c.logger.Error().Err(err).Str("path", key).Msg("click action failed")
		if c.bus != nil {
			c.bus.PublishLog(events.ErrorLevel, err.Error(), key, err)
		}
	})

	env.Refresher = c.refresher
	env.Clicks = c.clicks
	c.root = env.Root()
	return c
}

// Root is the workspace root node.
func (c *Controller) Root() workspace.Node {
	return c.root
}

// Refresher exposes the scheduler, mainly to flush before exit.
func (c *Controller) Refresher() *Refresher {
	return c.refresher
}

// Children returns the cached children of node, listing them on first use.
// A nil node is the root.
func (c *Controller) Children(ctx context.Context, node workspace.Node) ([]workspace.Node, error) {
	if node == nil {
		node = c.root
	}
	key := node.Path()

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	children, err := node.Children(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = children
	c.mu.Unlock()
	return children, nil
}

// Find walks from the root to the node at path.
func (c *Controller) Find(ctx context.Context, p string) (workspace.Node, error) {
	p = workspace.CleanRemotePath(p)
	var node workspace.Node = c.root
	if p == "/" {
		return node, nil
	}

	for _, segment := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if !node.Collapsible() {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, p)
		}
		children, err := c.Children(ctx, node)
		if err != nil {
			return nil, err
		}
		var next workspace.Node
		for _, child := range children {
			if child.Label() == segment {
				next = child
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, p)
		}
		node = next
	}
	return node, nil
}

// Resolve rebuilds a node serialized by a presentation layer and attaches it
// to its cached parent. When the parent cannot be found the node is returned
// detached and its refreshes cover the whole tree.
func (c *Controller) Resolve(ctx context.Context, data []byte) (workspace.Node, error) {
	n, err := c.env.Rehydrate(data, nil)
	if err != nil {
		return nil, err
	}
	if n.Path() == "/" {
		return c.root, nil
	}
	parent, err := c.Find(ctx, path.Dir(n.Path()))
	if err != nil {
		c.logger.Debug().Err(err).Str("path", n.Path()).Msg("resolving detached node")
		return n, nil
	}
	return c.env.Rehydrate(data, parent)
}

// Refresh is the handler of the refresh command. A nil target refreshes the
// whole tree.
func (c *Controller) Refresh(forceReload bool, target workspace.Node) {
	p := ""
	if target != nil {
		p = target.Path()
	}
	c.refresher.Request(p, forceReload)
}

// Invalidate drops cached listings of p and everything below it.
// "" drops the whole cache.
func (c *Controller) Invalidate(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p == "" || p == "/" {
		c.cache = make(map[string][]workspace.Node)
		return
	}
	for key := range c.cache {
		if key == p || strings.HasPrefix(key, p+"/") {
			delete(c.cache, key)
		}
	}
}

func (c *Controller) onRefresh(reqs []Request) {
	for _, r := range reqs {
		c.Invalidate(r.TargetPath)
		c.logger.Debug().Str("target", r.TargetPath).Bool("force", r.ForceReload).Msg("tree refresh")
		if c.bus != nil {
			c.bus.PublishRefresh(r.TargetPath, r.ForceReload)
		}
	}
}

// Close flushes pending refreshes and stops the timers.
func (c *Controller) Close() {
	c.refresher.Flush()
	c.refresher.Stop()
	c.clicks.Stop()
}
