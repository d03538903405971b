package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/dbxsync/dbx-sync/internal/events"
)

// SyncUI renders the transfer events of a directory sync. On a terminal it
// draws one bar whose total grows as transfers start; otherwise it prints a
// line per finished transfer.
type SyncUI struct {
	bus        *events.EventBus
	ch         <-chan events.Event
	stop       chan struct{}
	wg         sync.WaitGroup
	progress   *mpb.Progress
	bar        *mpb.Bar
	out        io.Writer
	isTerminal bool

	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// NewSyncUI subscribes to transfer events on bus. Close must be called once
// the sync returns.
func NewSyncUI(bus *events.EventBus, title string) *SyncUI {
	terminal := IsTerminal(os.Stderr)
	if terminal {
		enableANSI(os.Stderr)
	}
	return newSyncUI(bus, title, os.Stderr, terminal)
}

func newSyncUI(bus *events.EventBus, title string, out io.Writer, terminal bool) *SyncUI {
	u := &SyncUI{
		bus:        bus,
		stop:       make(chan struct{}),
		out:        out,
		isTerminal: terminal,
	}

	if terminal {
		u.progress = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(60),
		)
		u.bar = u.progress.AddBar(0,
			mpb.PrependDecorators(
				decor.Name(title, decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.Any(func(decor.Statistics) string {
					if n := u.failed.Load(); n > 0 {
						return fmt.Sprintf("%d failed", n)
					}
					return ""
				}, decor.WCSyncSpace),
			),
		)
	}

	u.ch = bus.Subscribe(
		events.EventTransferStarted,
		events.EventTransferCompleted,
		events.EventTransferFailed,
		events.EventTransferSkipped,
	)
	u.wg.Add(1)
	go u.consume()
	return u
}

func (u *SyncUI) consume() {
	defer u.wg.Done()
	for {
		select {
		case ev, ok := <-u.ch:
			if !ok {
				return
			}
			u.handle(ev)
		case <-u.stop:
			// drain what was published before Close
			for {
				select {
				case ev, ok := <-u.ch:
					if !ok {
						return
					}
					u.handle(ev)
				default:
					return
				}
			}
		}
	}
}

func (u *SyncUI) handle(ev events.Event) {
	te, ok := ev.(*events.TransferEvent)
	if !ok {
		return
	}

	switch te.Type() {
	case events.EventTransferStarted:
		n := u.started.Add(1)
		if u.bar != nil {
			u.bar.SetTotal(n, false)
		}
		return
	case events.EventTransferCompleted:
		u.completed.Add(1)
		u.printf("✓ %s %s\n", verb(te.Direction), describe(te))
	case events.EventTransferFailed:
		u.failed.Add(1)
		u.printf("✗ %s %s: %v\n", verb(te.Direction), describe(te), te.Error)
	case events.EventTransferSkipped:
		u.skipped.Add(1)
		return
	}
	if u.bar != nil {
		u.bar.Increment()
	}
}

func (u *SyncUI) printf(format string, args ...any) {
	if u.isTerminal && u.progress != nil {
		// through mpb so the bar is redrawn below the line
		fmt.Fprintf(u.progress, format, args...)
		return
	}
	fmt.Fprintf(u.out, format, args...)
}

func verb(d events.TransferDirection) string {
	if d == events.Upload {
		return "uploaded"
	}
	return "downloaded"
}

func describe(te *events.TransferEvent) string {
	if te.Direction == events.Upload {
		return fmt.Sprintf("%s → %s", truncatePath(te.LocalPath, 2), te.RemotePath)
	}
	return fmt.Sprintf("%s → %s", te.RemotePath, truncatePath(te.LocalPath, 2))
}

// Close stops listening, completes the bar and waits for the final render.
func (u *SyncUI) Close() {
	u.bus.Unsubscribe(u.ch)
	close(u.stop)
	u.wg.Wait()

	if u.bar != nil {
		u.bar.SetTotal(-1, true)
	}
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Counts returns completed, failed and skipped transfers seen so far.
func (u *SyncUI) Counts() (completed, failed, skipped int64) {
	return u.completed.Load(), u.failed.Load(), u.skipped.Load()
}
