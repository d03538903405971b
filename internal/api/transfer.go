package api

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/h2non/filetype"

	"github.com/dbxsync/dbx-sync/internal/diskspace"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// DownloadItem exports remotePath in format and writes it to localPath.
// The file is replaced atomically.
func (c *Client) DownloadItem(ctx context.Context, remotePath, localPath string, format workspace.ExportFormat) (string, error) {
	content, err := c.Export(ctx, remotePath, string(format))
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := diskspace.Check(localPath, int64(len(content)), diskspace.DefaultMargin); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	c.logger.Debug().Str("remote", remotePath).Str("local", localPath).Int("bytes", len(content)).Msg("exported")
	return localPath, nil
}

// UploadItem imports localPath to remotePath. Missing parent directories are
// created first. The language is only sent for SOURCE imports.
func (c *Client) UploadItem(ctx context.Context, localPath, remotePath string, language workspace.Language, overwrite bool, format workspace.ExportFormat) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	if err := checkContent(content, format); err != nil {
		return fmt.Errorf("%s: %w", localPath, err)
	}

	if parent := path.Dir(remotePath); parent != "/" && parent != "." {
		if err := c.Mkdirs(ctx, parent); err != nil {
			return err
		}
	}

	lang := ""
	if format == workspace.FormatSource {
		lang = string(language)
	}
	if err := c.Import(ctx, remotePath, string(format), lang, content, overwrite); err != nil {
		return err
	}

	c.logger.Debug().Str("remote", remotePath).Str("local", localPath).Str("format", string(format)).Msg("imported")
	return nil
}

// checkContent rejects files whose bytes contradict the export format: DBC
// must be a zip archive, SOURCE and JUPYTER must be text.
func checkContent(content []byte, format workspace.ExportFormat) error {
	switch format {
	case workspace.FormatDBC:
		if !filetype.Is(content, "zip") {
			return fmt.Errorf("DBC archive is not a zip file")
		}
	case workspace.FormatSource, workspace.FormatJupyter:
		if kind, err := filetype.Match(content); err == nil && kind != filetype.Unknown {
			return fmt.Errorf("%s notebook looks like a binary %s file", format, kind.MIME.Value)
		}
	}
	return nil
}
