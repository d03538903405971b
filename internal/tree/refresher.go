// Package tree owns the workspace tree view state: the cached node
// hierarchy, debounced refreshes and click disambiguation.
package tree

import (
	"sort"
	"sync"
	"time"

	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// Request is one coalesced refresh. An empty TargetPath is the whole tree.
type Request struct {
	TargetPath  string
	ForceReload bool
}

// Refresher debounces refresh requests. Every request restarts the delay;
// when it elapses all pending requests fire at once, one per target. A
// whole-tree request subsumes targeted ones.
type Refresher struct {
	delay time.Duration
	fire  func([]Request)

	mu      sync.Mutex
	pending map[string]bool // target path -> force reload
	timer   *time.Timer
	gen     uint64 // bumped whenever the armed timer is replaced or dropped
	stopped bool
}

// NewRefresher returns a refresher that calls fire after delay of quiet.
func NewRefresher(delay time.Duration, fire func([]Request)) *Refresher {
	return &Refresher{
		delay:   delay,
		fire:    fire,
		pending: make(map[string]bool),
	}
}

// Schedule implements workspace.Refresher. A nil target refreshes the whole tree.
func (r *Refresher) Schedule(target workspace.Node) {
	path := ""
	if target != nil {
		path = target.Path()
	}
	r.Request(path, false)
}

// Request queues a refresh of targetPath. "" and "/" mean the whole tree.
func (r *Refresher) Request(targetPath string, forceReload bool) {
	if targetPath == "/" {
		targetPath = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	if _, whole := r.pending[""]; whole || targetPath == "" {
		force := forceReload
		for _, f := range r.pending {
			force = force || f
		}
		r.pending = map[string]bool{"": force}
	} else {
		r.pending[targetPath] = r.pending[targetPath] || forceReload
	}

	r.disarmLocked()
	gen := r.gen
	r.timer = time.AfterFunc(r.delay, func() { r.expire(gen) })
}

// expire runs when the timer armed at gen elapses. A timer that was replaced
// after it had already fired finds a newer gen and does nothing.
func (r *Refresher) expire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	reqs := r.takeLocked()
	r.mu.Unlock()
	r.dispatch(reqs)
}

// Flush fires pending requests now.
func (r *Refresher) Flush() {
	r.mu.Lock()
	reqs := r.takeLocked()
	r.mu.Unlock()
	r.dispatch(reqs)
}

func (r *Refresher) disarmLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Refresher) takeLocked() []Request {
	r.disarmLocked()
	reqs := make([]Request, 0, len(r.pending))
	for p, force := range r.pending {
		reqs = append(reqs, Request{TargetPath: p, ForceReload: force})
	}
	r.pending = make(map[string]bool)
	return reqs
}

func (r *Refresher) dispatch(reqs []Request) {
	if len(reqs) == 0 {
		return
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].TargetPath < reqs[j].TargetPath })
	r.fire(reqs)
}

// Pending returns the number of queued targets.
func (r *Refresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Stop drops pending requests and ignores new ones.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.disarmLocked()
	r.pending = make(map[string]bool)
}
