package tree

import (
	"sync"
	"testing"
	"time"
)

type fireRecorder struct {
	mu    sync.Mutex
	calls [][]Request
	done  chan struct{}
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{done: make(chan struct{}, 16)}
}

func (f *fireRecorder) fire(reqs []Request) {
	f.mu.Lock()
	f.calls = append(f.calls, reqs)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fireRecorder) snapshot() [][]Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]Request(nil), f.calls...)
}

func (f *fireRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not fire")
	}
}

func TestRefresherCoalescesSameTarget(t *testing.T) {
	rec := newFireRecorder()
	r := NewRefresher(20*time.Millisecond, rec.fire)

	r.Request("/Users/a", false)
	r.Request("/Users/a", true)
	r.Request("/Users/b", false)
	rec.wait(t)

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one batch, got %d", len(calls))
	}
	want := []Request{{"/Users/a", true}, {"/Users/b", false}}
	if len(calls[0]) != len(want) {
		t.Fatalf("got %v, want %v", calls[0], want)
	}
	for i := range want {
		if calls[0][i] != want[i] {
			t.Errorf("request %d = %v, want %v", i, calls[0][i], want[i])
		}
	}
}

func TestRefresherWholeTreeSubsumesTargets(t *testing.T) {
	rec := newFireRecorder()
	r := NewRefresher(time.Hour, rec.fire)

	r.Request("/Users/a", true)
	r.Request("/", false)
	r.Request("/Users/b", false)
	if r.Pending() != 1 {
		t.Fatalf("expected a single whole-tree request, got %d pending", r.Pending())
	}

	r.Flush()
	calls := rec.snapshot()
	if len(calls) != 1 || len(calls[0]) != 1 {
		t.Fatalf("unexpected batches %v", calls)
	}
	if got := calls[0][0]; got.TargetPath != "" || !got.ForceReload {
		t.Errorf("expected forced whole-tree refresh, got %+v", got)
	}
	r.Stop()
}

func TestRefresherFlushEmptyDoesNotFire(t *testing.T) {
	rec := newFireRecorder()
	r := NewRefresher(time.Hour, rec.fire)
	r.Flush()
	if len(rec.snapshot()) != 0 {
		t.Error("flush with nothing pending should not fire")
	}
}

func TestRefresherStopDropsRequests(t *testing.T) {
	rec := newFireRecorder()
	r := NewRefresher(10*time.Millisecond, rec.fire)

	r.Request("/a", false)
	r.Stop()
	r.Request("/b", false)
	time.Sleep(50 * time.Millisecond)

	if len(rec.snapshot()) != 0 {
		t.Error("stopped refresher must not fire")
	}
	if r.Pending() != 0 {
		t.Errorf("expected no pending requests, got %d", r.Pending())
	}
}

func TestRefresherScheduleNilIsWholeTree(t *testing.T) {
	rec := newFireRecorder()
	r := NewRefresher(time.Hour, rec.fire)
	r.Schedule(nil)
	r.Flush()

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0][0].TargetPath != "" {
		t.Errorf("expected whole-tree refresh, got %v", calls)
	}
}

func TestRefresherStaleTimerDoesNotSkipDebounce(t *testing.T) {
	rec := newFireRecorder()
	r := NewRefresher(40*time.Millisecond, rec.fire)

	r.Request("/a", false)
	r.mu.Lock()
	stale := r.gen
	r.mu.Unlock()

	// a second request replaces the timer; the first one may already be
	// running and waiting for the lock
	r.Request("/b", false)
	r.expire(stale)

	if len(rec.snapshot()) != 0 {
		t.Fatal("a replaced timer must not fire the new request early")
	}
	if r.Pending() != 2 {
		t.Fatalf("expected both requests pending, got %d", r.Pending())
	}

	rec.wait(t)
	calls := rec.snapshot()
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Errorf("expected one batch with both targets, got %v", calls)
	}
}
