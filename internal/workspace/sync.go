package workspace

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dbxsync/dbx-sync/internal/constants"
	"github.com/dbxsync/dbx-sync/internal/events"
	"github.com/dbxsync/dbx-sync/internal/localfs"
)

// SyncReport collects the outcome of a recursive directory transfer.
// Per-item failures do not stop the transfer.
type SyncReport struct {
	mu         sync.Mutex
	Downloaded int
	Uploaded   int
	Skipped    int
	Failed     int
	Errors     []error
}

func (r *SyncReport) record(dir events.TransferDirection, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil:
		r.Failed++
		r.Errors = append(r.Errors, err)
	case dir == events.Download:
		r.Downloaded++
	default:
		r.Uploaded++
	}
}

func (r *SyncReport) skip() {
	r.mu.Lock()
	r.Skipped++
	r.mu.Unlock()
}

// Err joins every per-item error, or returns nil.
func (r *SyncReport) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.Errors...)
}

func (e *Env) maxConcurrent() int {
	if e.MaxConcurrent < 1 {
		return constants.DefaultMaxConcurrent
	}
	return e.MaxConcurrent
}

func (e *Env) publish(t events.EventType, dir events.TransferDirection, remotePath, localPath string, err error) {
	if e.Events != nil {
		e.Events.PublishTransfer(t, dir, remotePath, localPath, err)
	}
}

// Download mirrors every online notebook below d into the sync folder.
// The subtree is listed first, then notebooks are fetched concurrently.
// A failure to list d itself is returned; everything else lands in report.
func (d *Directory) Download(ctx context.Context, report *SyncReport) error {
	if !d.OnlinePathExists() {
		return newActionError(KindPrecondition, "download", d.path, ErrNoRemoteCopy)
	}

	notebooks, err := d.collectNotebooks(ctx, report)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(d.env.maxConcurrent())
	for _, nb := range notebooks {
		if ctx.Err() != nil {
			break
		}
		if !nb.OnlinePathExists() {
			report.skip()
			d.env.publish(events.EventTransferSkipped, events.Download, nb.path, nb.LocalPath(), nil)
			continue
		}
		nb := nb
		g.Go(func() error {
			d.env.publish(events.EventTransferStarted, events.Download, nb.path, nb.LocalPath(), nil)
			localPath, err := nb.fetch(ctx, false)
			report.record(events.Download, err)
			if err != nil {
				d.env.publish(events.EventTransferFailed, events.Download, nb.path, nb.LocalPath(), err)
			} else {
				d.env.publish(events.EventTransferCompleted, events.Download, nb.path, localPath, nil)
			}
			return nil
		})
	}
	_ = g.Wait()

	d.scheduleSelf()
	return ctx.Err()
}

// collectNotebooks walks the online subtree depth-first.
func (d *Directory) collectNotebooks(ctx context.Context, report *SyncReport) ([]*Notebook, error) {
	children, err := d.Children(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Notebook
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		switch c := child.(type) {
		case *Notebook:
			out = append(out, c)
		case *Directory:
			if !c.OnlinePathExists() {
				continue
			}
			sub, err := c.collectNotebooks(ctx, report)
			if err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				report.record(events.Download, err)
				continue
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// Upload pushes every notebook file below the local folder of d. Files with
// an unrecognised extension are counted as skipped. When two files map to
// the same notebook the canonical extension wins.
func (d *Directory) Upload(ctx context.Context, report *SyncReport) error {
	root := d.LocalDir()
	if !localfs.DirExists(root) {
		return newActionError(KindPrecondition, "upload", d.path, ErrNoLocalCopy)
	}

	layout := d.env.Layout
	type candidate struct {
		remotePath string
		mapping    FileExtensionMapping
	}
	var order []string
	found := make(map[string]candidate)

	err := localfs.WalkFiles(ctx, root, localfs.WalkOptions{SkipHiddenDirs: true}, func(entry localfs.FileEntry) error {
		m, ok := localNotebookMapping(layout, entry.Name)
		if !ok {
			report.skip()
			return nil
		}
		rp, err := layout.RemotePath(entry.Path, true)
		if err != nil {
			report.record(events.Upload, err)
			return nil
		}
		prev, dup := found[rp]
		if !dup {
			order = append(order, rp)
		} else {
			report.skip()
			if layout.Extensions.IsCanonical(prev.mapping) {
				return nil
			}
		}
		found[rp] = candidate{remotePath: rp, mapping: m}
		return nil
	})
	if err != nil {
		return newActionError(KindLocal, "upload", d.path, err)
	}

	var g errgroup.Group
	g.SetLimit(d.env.maxConcurrent())
	for _, rp := range order {
		if ctx.Err() != nil {
			break
		}
		c := found[rp]
		nb := d.env.NewNotebook(c.remotePath, 0, c.mapping.Language, Local, nil)
		if err := nb.Bind(c.mapping); err != nil {
			report.record(events.Upload, err)
			continue
		}
		g.Go(func() error {
			d.env.publish(events.EventTransferStarted, events.Upload, nb.path, nb.LocalPath(), nil)
			err := nb.push(ctx)
			report.record(events.Upload, err)
			if err != nil {
				d.env.publish(events.EventTransferFailed, events.Upload, nb.path, nb.LocalPath(), err)
			} else {
				d.env.publish(events.EventTransferCompleted, events.Upload, nb.path, nb.LocalPath(), nil)
			}
			return nil
		})
	}
	_ = g.Wait()

	d.scheduleSelf()
	return ctx.Err()
}

func (d *Directory) scheduleSelf() {
	if d.env.Refresher != nil {
		d.env.Refresher.Schedule(d)
	}
}
