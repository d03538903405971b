package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dbxsync/dbx-sync/internal/progress"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// syncStater is implemented by notebooks and directories.
type syncStater interface {
	LocalPathExists() bool
	OnlinePathExists() bool
}

func nodeState(n workspace.Node) string {
	if s, ok := n.(syncStater); ok {
		return workspace.StateOf(s.LocalPathExists(), s.OnlinePathExists()).String()
	}
	return ""
}

func newListCmd() *cobra.Command {
	var (
		recursive bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:     "ls [path]",
		Aliases: []string{"list"},
		Short:   "List a workspace folder with the sync state of each entry",
		Long: `List the children of a workspace folder. Notebooks and folders that only
exist in the local sync folder are listed too.

States:
  Online only   - not downloaded yet
  Offline only  - only in the local sync folder
  Synced        - present in both places`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			arg := "/"
			if len(args) == 1 {
				arg = args[0]
			}
			node, err := s.find(GetContext(), arg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return s.listJSON(GetContext(), out, node, recursive)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tSTATE\tLANGUAGE\tPATH")
			if err := s.listTable(GetContext(), tw, node, recursive); err != nil {
				return err
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "List subfolders recursively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON node per line")
	return cmd
}

func (s *session) listTable(ctx context.Context, w io.Writer, node workspace.Node, recursive bool) error {
	children, err := s.ctrl.Children(ctx, node)
	if err != nil {
		return err
	}
	for _, child := range children {
		lang := ""
		if nb, ok := child.(*workspace.Notebook); ok {
			lang = string(nb.Language())
		}
		state := nodeState(child)
		if state == "" {
			state = "-"
		}
		if lang == "" {
			lang = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", strings.ToLower(string(child.Type())), state, lang, child.Path())

		if recursive && child.Collapsible() {
			if err := s.listTable(ctx, w, child, recursive); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) listJSON(ctx context.Context, w io.Writer, node workspace.Node, recursive bool) error {
	children, err := s.ctrl.Children(ctx, node)
	if err != nil {
		return err
	}
	for _, child := range children {
		data, err := workspace.MarshalNode(child)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		if recursive && child.Collapsible() {
			if err := s.listJSON(ctx, w, child, recursive); err != nil {
				return err
			}
		}
	}
	return nil
}

func newDownloadCmd() *cobra.Command {
	var asTemp bool

	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Download a notebook into the sync folder",
		Long: `Download the online notebook at <path> into the local sync folder using
the export format of its local representation.

With --temp the notebook is written to a new temporary file instead and the
sync folder is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			nb, err := s.notebook(ctx, args[0])
			if err != nil {
				return err
			}

			reporter := progress.NewReporter(quiet)
			reporter.Start("Downloading " + nb.Path())
			localPath, err := nb.Download(ctx, asTemp)
			if err != nil {
				reporter.Error(err)
				return err
			}
			reporter.Finish()

			GetLogger().Info().Str("path", nb.Path()).Str("local", localPath).Msg("Notebook downloaded")
			fmt.Fprintln(cmd.OutOrStdout(), localPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTemp, "temp", false, "Download into a temporary file")
	return cmd
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a notebook from the sync folder",
		Long: `Upload the local file of the notebook at <path>, overwriting the online
notebook. <path> may be a workspace path or the local file itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			nb, err := s.notebook(ctx, args[0])
			if err != nil {
				return err
			}

			reporter := progress.NewReporter(quiet)
			reporter.Start("Uploading " + nb.Path())
			if err := nb.Upload(ctx); err != nil {
				reporter.Error(err)
				return err
			}
			reporter.Finish()

			GetLogger().Info().Str("path", nb.Path()).Str("local", nb.LocalPath()).Msg("Notebook uploaded")
			return nil
		},
	}
}

func newOpenCmd() *cobra.Command {
	var noWarning bool

	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Open a notebook's local copy in the editor",
		Long: `Open the local copy of the notebook at <path> in the configured editor,
downloading it first when it is not in the sync folder yet.

An existing local copy is opened with a warning that it might differ from
the online version, unless --no-warning is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			nb, err := s.notebook(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = nb.Open(ctx, !noWarning)
			return err
		},
	}

	cmd.Flags().BoolVar(&noWarning, "no-warning", false, "Do not warn when opening an existing local copy")
	return cmd
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <path>",
		Short: "Diff the online notebook against its local copy",
		Long: `Download a temporary copy of the online notebook and show the differences
to the local copy, using diff_tool when configured.

Notebooks stored as .ipynb or .dbc cannot be compared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			nb, err := s.notebook(ctx, args[0])
			if err != nil {
				return err
			}
			return nb.Compare(ctx)
		},
	}
}

func newSyncCmd() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "sync <path>",
		Short: "Download or upload every notebook below a folder",
		Long: `Transfer every notebook below the workspace folder <path>.

  --direction down  download online notebooks into the sync folder
  --direction up    upload notebook files from the sync folder

Failures of single notebooks are reported at the end and do not stop the
rest of the transfer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			down := strings.EqualFold(direction, "down")
			if !down && !strings.EqualFold(direction, "up") {
				return fmt.Errorf("--direction must be 'down' or 'up', got %q", direction)
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			dir, err := s.directory(ctx, args[0])
			if err != nil {
				return err
			}

			var ui *progress.SyncUI
			if !quiet {
				ui = progress.NewSyncUI(s.bus, direction+" "+dir.Path())
			}

			report := &workspace.SyncReport{}
			if down {
				err = dir.Download(ctx, report)
			} else {
				err = dir.Upload(ctx, report)
			}
			if ui != nil {
				ui.Close()
			}
			if err != nil {
				return err
			}

			GetLogger().Info().
				Int("downloaded", report.Downloaded).
				Int("uploaded", report.Uploaded).
				Int("skipped", report.Skipped).
				Int("failed", report.Failed).
				Msg("Sync finished")
			if rerr := report.Err(); rerr != nil {
				return fmt.Errorf("%d notebook(s) failed: %w", report.Failed, rerr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "down", "Transfer direction: down or up")
	return cmd
}

func newCopyPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-path <path>",
		Short: "Copy a node's workspace path to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			node, err := s.find(GetContext(), args[0])
			if err != nil {
				return err
			}
			if err := node.CopyPathToClipboard(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), node.Path())
			return nil
		},
	}
}
