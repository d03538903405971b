// Package api is the workspace REST API client.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the error_code field of 2.0 API errors.
const (
	CodeResourceDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
	CodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	CodeInvalidParameterValue = "INVALID_PARAMETER_VALUE"
	CodePermissionDenied      = "PERMISSION_DENIED"
)

var (
	// ErrResourceNotFound matches an APIError for a missing workspace object.
	ErrResourceNotFound = errors.New("resource does not exist")
	// ErrResourceAlreadyExists matches an APIError for an import without overwrite onto an existing object.
	ErrResourceAlreadyExists = errors.New("resource already exists")
	// ErrPermissionDenied matches 401/403 responses.
	ErrPermissionDenied = errors.New("permission denied")
)

// APIError is a non-2xx response of the workspace API.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s %s failed: status %d: %s: %s", e.Method, e.Endpoint, e.StatusCode, e.ErrorCode, msg)
	}
	return fmt.Sprintf("%s %s failed: status %d: %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// Is lets errors.Is match the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrResourceNotFound:
		return e.ErrorCode == CodeResourceDoesNotExist ||
			(e.ErrorCode == "" && e.StatusCode == http.StatusNotFound)
	case ErrResourceAlreadyExists:
		return e.ErrorCode == CodeResourceAlreadyExists
	case ErrPermissionDenied:
		return e.ErrorCode == CodePermissionDenied ||
			e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a missing workspace object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsAlreadyExists reports whether err is a conflict with an existing object.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrResourceAlreadyExists)
}
