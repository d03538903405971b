package workspace

import (
	"errors"
	"fmt"
)

// ErrorKind classifies action failures for the presentation layer.
type ErrorKind int

const (
	// KindRemote is a network, auth or API failure.
	KindRemote ErrorKind = iota
	// KindPrecondition is refused before any I/O.
	KindPrecondition
	// KindNotImplemented is an operation the node kind does not support.
	KindNotImplemented
	// KindHost is a failure of the host integration (editor, diff, clipboard).
	KindHost
	// KindLocal is a local filesystem failure.
	KindLocal
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindPrecondition:
		return "precondition"
	case KindNotImplemented:
		return "not implemented"
	case KindHost:
		return "host"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

var (
	ErrNotImplemented        = errors.New("not implemented")
	ErrNotebookFormatCompare = errors.New("notebook formats cannot be compared, switch to a source file extension")
	ErrNoLocalCopy           = errors.New("no local copy exists")
	ErrNoRemoteCopy          = errors.New("no online copy exists")
)

// ActionError is returned by every node action.
type ActionError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func newActionError(kind ErrorKind, op, path string, err error) *ActionError {
	return &ActionError{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first ActionError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
