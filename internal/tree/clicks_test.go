package tree

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type clickCounter struct {
	mu      sync.Mutex
	singles int
	doubles int
	fired   chan string
}

func newClickCounter() *clickCounter {
	return &clickCounter{fired: make(chan string, 8)}
}

func (c *clickCounter) single(context.Context) error {
	c.mu.Lock()
	c.singles++
	c.mu.Unlock()
	c.fired <- "single"
	return nil
}

func (c *clickCounter) double(context.Context) error {
	c.mu.Lock()
	c.doubles++
	c.mu.Unlock()
	c.fired <- "double"
	return nil
}

func (c *clickCounter) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.singles, c.doubles
}

func TestClicksSingleFiresAfterWindow(t *testing.T) {
	cc := newClickCounter()
	clicks := NewClicks(20*time.Millisecond, nil)

	clicks.Dispatch(context.Background(), "/a", cc.single, cc.double)

	select {
	case kind := <-cc.fired:
		if kind != "single" {
			t.Fatalf("expected single, got %s", kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("single click never fired")
	}
	if s, d := cc.counts(); s != 1 || d != 0 {
		t.Errorf("singles=%d doubles=%d", s, d)
	}
}

func TestClicksDoubleInsideWindow(t *testing.T) {
	cc := newClickCounter()
	clicks := NewClicks(time.Hour, nil)
	defer clicks.Stop()

	clicks.Dispatch(context.Background(), "/a", cc.single, cc.double)
	clicks.Dispatch(context.Background(), "/a", cc.single, cc.double)

	if s, d := cc.counts(); s != 0 || d != 1 {
		t.Errorf("singles=%d doubles=%d, want 0 and 1", s, d)
	}
}

func TestClicksKeysAreIndependent(t *testing.T) {
	cc := newClickCounter()
	clicks := NewClicks(time.Hour, nil)

	clicks.Dispatch(context.Background(), "/a", cc.single, cc.double)
	clicks.Dispatch(context.Background(), "/b", cc.single, cc.double)

	if _, d := cc.counts(); d != 0 {
		t.Error("clicks on different keys must not pair up")
	}
	clicks.Stop()
	if s, _ := cc.counts(); s != 0 {
		t.Error("stopped clicks must not fire")
	}
}

func TestClicksReportsHandlerErrors(t *testing.T) {
	var (
		mu     sync.Mutex
		gotKey string
		gotErr error
	)
	boom := errors.New("boom")
	clicks := NewClicks(time.Hour, func(key string, err error) {
		mu.Lock()
		gotKey, gotErr = key, err
		mu.Unlock()
	})
	defer clicks.Stop()

	noop := func(context.Context) error { return nil }
	fail := func(context.Context) error { return boom }
	clicks.Dispatch(context.Background(), "/nb", noop, fail)
	clicks.Dispatch(context.Background(), "/nb", noop, fail)

	mu.Lock()
	defer mu.Unlock()
	if gotKey != "/nb" || !errors.Is(gotErr, boom) {
		t.Errorf("onError got (%q, %v)", gotKey, gotErr)
	}
}
