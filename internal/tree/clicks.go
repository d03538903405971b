package tree

import (
	"context"
	"sync"
	"time"
)

// Clicks tells single from double clicks. The first click on a key arms a
// timer; a second click on the same key inside the window cancels it and
// runs the double handler instead.
type Clicks struct {
	window  time.Duration
	onError func(key string, err error)

	mu      sync.Mutex
	pending map[string]*pendingClick
}

type pendingClick struct {
	timer *time.Timer
}

// NewClicks returns a dispatcher. onError receives handler failures and may be nil.
func NewClicks(window time.Duration, onError func(key string, err error)) *Clicks {
	return &Clicks{
		window:  window,
		onError: onError,
		pending: make(map[string]*pendingClick),
	}
}

// Dispatch implements workspace.ClickDispatcher. The double handler runs on
// the calling goroutine; the single handler runs when the window expires.
func (c *Clicks) Dispatch(ctx context.Context, key string, single, double func(context.Context) error) {
	c.mu.Lock()
	if p, ok := c.pending[key]; ok && p.timer.Stop() {
		delete(c.pending, key)
		c.mu.Unlock()
		c.run(ctx, key, double)
		return
	}

	// first click, or the previous single click is already firing
	p := &pendingClick{}
	p.timer = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		if c.pending[key] == p {
			delete(c.pending, key)
		}
		c.mu.Unlock()
		c.run(ctx, key, single)
	})
	c.pending[key] = p
	c.mu.Unlock()
}

func (c *Clicks) run(ctx context.Context, key string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && c.onError != nil {
		c.onError(key, err)
	}
}

// Stop cancels every armed single click.
func (c *Clicks) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, key)
	}
}
