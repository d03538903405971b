package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/dbxsync/dbx-sync/internal/models"
)

const (
	endpointList      = "/api/2.0/workspace/list"
	endpointGetStatus = "/api/2.0/workspace/get-status"
	endpointExport    = "/api/2.0/workspace/export"
	endpointImport    = "/api/2.0/workspace/import"
	endpointMkdirs    = "/api/2.0/workspace/mkdirs"
	endpointDelete    = "/api/2.0/workspace/delete"
)

// List returns the direct children of a workspace directory.
func (c *Client) List(ctx context.Context, path string) ([]models.ObjectInfo, error) {
	var resp models.ListResponse
	if err := c.doRequest(ctx, "GET", endpointList, url.Values{"path": {path}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

// GetStatus returns the object at path.
func (c *Client) GetStatus(ctx context.Context, path string) (*models.ObjectInfo, error) {
	var info models.ObjectInfo
	if err := c.doRequest(ctx, "GET", endpointGetStatus, url.Values{"path": {path}}, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Export returns the decoded content of a notebook in the given format.
func (c *Client) Export(ctx context.Context, path, format string) ([]byte, error) {
	q := url.Values{"path": {path}, "format": {format}}
	var resp models.ExportResponse
	if err := c.doRequest(ctx, "GET", endpointExport, q, nil, &resp); err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exported content of %s: %w", path, err)
	}
	return content, nil
}

// Import creates or replaces a notebook. Content must be raw bytes; it is
// base64 encoded here.
func (c *Client) Import(ctx context.Context, path, format, language string, content []byte, overwrite bool) error {
	req := models.ImportRequest{
		Path:      path,
		Format:    format,
		Language:  language,
		Content:   base64.StdEncoding.EncodeToString(content),
		Overwrite: overwrite,
	}
	return c.doRequest(ctx, "POST", endpointImport, nil, req, nil)
}

// Mkdirs creates path and any missing parents. Existing directories are fine.
func (c *Client) Mkdirs(ctx context.Context, path string) error {
	return c.doRequest(ctx, "POST", endpointMkdirs, nil, models.MkdirsRequest{Path: path}, nil)
}

// Delete removes an object. Non-empty directories need recursive.
func (c *Client) Delete(ctx context.Context, path string, recursive bool) error {
	return c.doRequest(ctx, "POST", endpointDelete, nil, models.DeleteRequest{Path: path, Recursive: recursive}, nil)
}
