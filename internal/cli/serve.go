package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dbxsync/dbx-sync/internal/constants"
	"github.com/dbxsync/dbx-sync/internal/events"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// Host protocol: one JSON request per stdin line, one JSON response or
// event per stdout line. Nodes travel in the form printed by "ls --json".
const (
	cmdChildren = "children"
	cmdDownload = "download"
	cmdUpload   = "upload"
	cmdOpen     = "open"
	cmdCompare  = "compare"
	cmdCopyPath = "copyPath"
	cmdCloseDiff = "closeDiff"
)

type serveRequest struct {
	ID        int64             `json:"id"`
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

type serveError struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

type serveResponse struct {
	ID     int64       `json:"id"`
	Result any         `json:"result,omitempty"`
	Error  *serveError `json:"error,omitempty"`
}

type serveEvent struct {
	Event     string `json:"event"`
	Target    string `json:"target,omitempty"`
	Force     bool   `json:"force,omitempty"`
	Direction string `json:"direction,omitempty"`
	Path      string `json:"path,omitempty"`
	Local     string `json:"local,omitempty"`
	Remote    string `json:"remote,omitempty"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text,omitempty"`
	Level     string `json:"level,omitempty"`
	Message   string `json:"message,omitempty"`
}

type serveCommand struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

// treeItem is everything a tree view needs to render one node.
type treeItem struct {
	Node         json.RawMessage `json:"node"`
	Label        string          `json:"label"`
	Tooltip      string          `json:"tooltip"`
	Description  string          `json:"description,omitempty"`
	ContextValue string          `json:"contextValue"`
	Icon         string          `json:"icon"`
	Collapsible  bool            `json:"collapsible"`
	Command      *serveCommand   `json:"command,omitempty"`
}

func newServeCmd() *cobra.Command {
	var theme string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace tree to an editor over stdin/stdout",
		Long: `Run as the backend of an editor tree view. Requests are read from stdin,
one JSON object per line:

  {"id": 1, "command": "children", "arguments": [<node>]}
  {"id": 2, "command": "` + constants.CommandClick + `", "arguments": [<node>]}
  {"id": 3, "command": "` + constants.CommandRefresh + `", "arguments": [true]}

Other commands: download, upload, open, compare, copyPath and
closeDiff <remote>. Responses and events are written to stdout. Besides
refresh, transfer and log events the editor receives open, diff, warning
and clipboard events; nothing is launched by the server itself. The online
copy named by a diff event stays on disk until closeDiff or shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol
			GetLogger().SetOutput(os.Stderr)
			s, err := newSession()
			if err != nil {
				return err
			}
			srv := newServer(s, workspace.Theme(theme), cmd.OutOrStdout())
			return srv.run(GetContext(), os.Stdin)
		},
	}

	cmd.Flags().StringVar(&theme, "theme", string(workspace.ThemeLight), "Icon theme: light or dark")
	return cmd
}

type server struct {
	s     *session
	theme workspace.Theme
	host  *editorHost

	outMu sync.Mutex
	enc   *json.Encoder
}

func newServer(s *session, theme workspace.Theme, out io.Writer) *server {
	if theme != workspace.ThemeDark {
		theme = workspace.ThemeLight
	}
	srv := &server{s: s, theme: theme, enc: json.NewEncoder(out)}
	srv.host = newEditorHost(srv.write, GetLogger())
	s.env.Host = srv.host
	return srv
}

func (srv *server) write(v any) {
	srv.outMu.Lock()
	defer srv.outMu.Unlock()
	if err := srv.enc.Encode(v); err != nil {
		GetLogger().Error().Err(err).Msg("failed to write to host")
	}
}

// run serves until in is exhausted or ctx is cancelled. Requests are
// handled concurrently; pending refreshes are flushed before returning.
func (srv *server) run(ctx context.Context, in io.Reader) error {
	ch := srv.s.bus.SubscribeAll()
	stop := make(chan struct{})
	var evWG sync.WaitGroup
	evWG.Add(1)
	go func() {
		defer evWG.Done()
		srv.forwardEvents(ch, stop)
	}()

	var wg sync.WaitGroup
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req serveRequest
		if err := json.Unmarshal(line, &req); err != nil {
			srv.write(serveResponse{Error: &serveError{Message: fmt.Sprintf("invalid request: %v", err)}})
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.respond(ctx, req)
		}()
	}
	wg.Wait()

	srv.s.ctrl.Close()
	srv.s.bus.Unsubscribe(ch)
	close(stop)
	evWG.Wait()
	srv.s.bus.Close()
	srv.host.closeAll()

	return scanner.Err()
}

func (srv *server) forwardEvents(ch <-chan events.Event, stop <-chan struct{}) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			srv.write(toServeEvent(ev))
		case <-stop:
			for {
				select {
				case ev, ok := <-ch:
					if !ok {
						return
					}
					srv.write(toServeEvent(ev))
				default:
					return
				}
			}
		}
	}
}

func toServeEvent(ev events.Event) serveEvent {
	switch e := ev.(type) {
	case *events.RefreshEvent:
		return serveEvent{Event: "refresh", Target: e.TargetPath, Force: e.ForceReload}
	case *events.TransferEvent:
		out := serveEvent{Event: string(e.Type()), Direction: string(e.Direction), Path: e.RemotePath, Local: e.LocalPath}
		if e.Error != nil {
			out.Message = e.Error.Error()
		}
		return out
	case *events.LogEvent:
		return serveEvent{Event: "log", Level: e.Level.String(), Message: e.Message, Path: e.Path}
	default:
		return serveEvent{Event: string(ev.Type())}
	}
}

func (srv *server) respond(ctx context.Context, req serveRequest) {
	result, err := srv.dispatch(ctx, req)
	resp := serveResponse{ID: req.ID, Result: result}
	if err != nil {
		resp.Result = nil
		resp.Error = &serveError{Message: err.Error()}
		if kind, ok := workspace.KindOf(err); ok {
			resp.Error.Kind = kind.String()
		}
	}
	srv.write(resp)
}

var errMissingNode = errors.New("a node argument is required")

// node decodes the argument at i. A missing argument is the root when
// allowRoot is set.
func (srv *server) node(ctx context.Context, req serveRequest, i int, allowRoot bool) (workspace.Node, error) {
	if i >= len(req.Arguments) || string(req.Arguments[i]) == "null" {
		if allowRoot {
			return srv.s.ctrl.Root(), nil
		}
		return nil, errMissingNode
	}
	return srv.s.ctrl.Resolve(ctx, req.Arguments[i])
}

func boolArg(req serveRequest, i int, def bool) (bool, error) {
	if i >= len(req.Arguments) {
		return def, nil
	}
	var b bool
	if err := json.Unmarshal(req.Arguments[i], &b); err != nil {
		return def, fmt.Errorf("argument %d must be a boolean: %w", i, err)
	}
	return b, nil
}

func asNotebook(n workspace.Node) (*workspace.Notebook, error) {
	nb, ok := n.(*workspace.Notebook)
	if !ok {
		return nil, fmt.Errorf("%s is not a notebook", n.Path())
	}
	return nb, nil
}

func (srv *server) dispatch(ctx context.Context, req serveRequest) (any, error) {
	switch req.Command {
	case constants.CommandRefresh:
		force, err := boolArg(req, 0, false)
		if err != nil {
			return nil, err
		}
		var target workspace.Node
		if len(req.Arguments) > 1 && string(req.Arguments[1]) != "null" {
			if target, err = srv.node(ctx, req, 1, false); err != nil {
				return nil, err
			}
		}
		srv.s.ctrl.Refresh(force, target)
		return true, nil

	case cmdChildren:
		n, err := srv.node(ctx, req, 0, true)
		if err != nil {
			return nil, err
		}
		children, err := srv.s.ctrl.Children(ctx, n)
		if err != nil {
			return nil, err
		}
		items := make([]treeItem, 0, len(children))
		for _, c := range children {
			item, err := srv.item(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case constants.CommandClick:
		n, err := srv.node(ctx, req, 0, false)
		if err != nil {
			return nil, err
		}
		nb, err := asNotebook(n)
		if err != nil {
			return nil, err
		}
		// the click outlives the request; a double click opens after this returns
		nb.Click(context.WithoutCancel(ctx))
		return true, nil

	case cmdDownload, cmdUpload:
		n, err := srv.node(ctx, req, 0, false)
		if err != nil {
			return nil, err
		}
		return srv.transfer(ctx, req, n)

	case cmdOpen:
		n, err := srv.node(ctx, req, 0, false)
		if err != nil {
			return nil, err
		}
		nb, err := asNotebook(n)
		if err != nil {
			return nil, err
		}
		warn, err := boolArg(req, 1, true)
		if err != nil {
			return nil, err
		}
		return nb.Open(ctx, warn)

	case cmdCompare:
		n, err := srv.node(ctx, req, 0, false)
		if err != nil {
			return nil, err
		}
		nb, err := asNotebook(n)
		if err != nil {
			return nil, err
		}
		return true, nb.Compare(ctx)

	case cmdCloseDiff:
		if len(req.Arguments) == 0 {
			return nil, errors.New("the online copy path is required")
		}
		var remoteCopy string
		if err := json.Unmarshal(req.Arguments[0], &remoteCopy); err != nil {
			return nil, fmt.Errorf("argument 0 must be a path: %w", err)
		}
		return true, srv.host.closeDiff(remoteCopy)

	case cmdCopyPath:
		n, err := srv.node(ctx, req, 0, false)
		if err != nil {
			return nil, err
		}
		return n.Path(), n.CopyPathToClipboard()

	default:
		return nil, fmt.Errorf("unknown command %q", req.Command)
	}
}

func (srv *server) transfer(ctx context.Context, req serveRequest, n workspace.Node) (any, error) {
	switch v := n.(type) {
	case *workspace.Notebook:
		if req.Command == cmdUpload {
			return v.LocalPath(), v.Upload(ctx)
		}
		temp, err := boolArg(req, 1, false)
		if err != nil {
			return nil, err
		}
		return v.Download(ctx, temp)
	case *workspace.Directory:
		report := &workspace.SyncReport{}
		var err error
		if req.Command == cmdUpload {
			err = v.Upload(ctx, report)
		} else {
			err = v.Download(ctx, report)
		}
		if err != nil {
			return nil, err
		}
		return map[string]int{
			"downloaded": report.Downloaded,
			"uploaded":   report.Uploaded,
			"skipped":    report.Skipped,
			"failed":     report.Failed,
		}, report.Err()
	default:
		return nil, fmt.Errorf("%s cannot be transferred", n.Path())
	}
}

func (srv *server) item(n workspace.Node) (treeItem, error) {
	data, err := workspace.MarshalNode(n)
	if err != nil {
		return treeItem{}, err
	}
	item := treeItem{
		Node:         data,
		Label:        n.Label(),
		Tooltip:      n.Tooltip(),
		Description:  n.Description(),
		ContextValue: n.ContextValue(),
		Icon:         n.Icon(srv.theme),
		Collapsible:  n.Collapsible(),
	}
	if c := n.Command(); c != nil {
		// node arguments travel in their serialized form
		item.Command = &serveCommand{ID: c.ID, Title: c.Title, Arguments: []json.RawMessage{data}}
	}
	return item, nil
}
