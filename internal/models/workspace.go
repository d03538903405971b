// Package models holds the wire types of the workspace REST API.
package models

// ObjectInfo is one entry of a workspace listing or a get-status response.
type ObjectInfo struct {
	Path       string `json:"path"`
	ObjectType string `json:"object_type,omitempty"` // NOTEBOOK, DIRECTORY, LIBRARY, REPO, FILE
	ObjectID   int64  `json:"object_id,omitempty"`
	Language   string `json:"language,omitempty"` // only set for notebooks
	CreatedAt  int64  `json:"created_at,omitempty"`
	ModifiedAt int64  `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// ListResponse is returned by GET /api/2.0/workspace/list.
// An empty directory comes back without the objects key.
type ListResponse struct {
	Objects []ObjectInfo `json:"objects,omitempty"`
}

// ExportResponse is returned by GET /api/2.0/workspace/export.
// Content is base64 encoded.
type ExportResponse struct {
	Content  string `json:"content"`
	FileType string `json:"file_type,omitempty"`
}

// ImportRequest is the body of POST /api/2.0/workspace/import.
type ImportRequest struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	Language  string `json:"language,omitempty"` // required for SOURCE, ignored otherwise
	Content   string `json:"content"`
	Overwrite bool   `json:"overwrite"`
}

// MkdirsRequest is the body of POST /api/2.0/workspace/mkdirs.
type MkdirsRequest struct {
	Path string `json:"path"`
}

// DeleteRequest is the body of POST /api/2.0/workspace/delete.
type DeleteRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// ErrorResponse is the error body returned by every 2.0 endpoint.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}
