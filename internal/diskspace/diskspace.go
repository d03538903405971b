// Package diskspace checks free space on the volume that receives exported
// notebooks before they are written.
package diskspace

import (
	"errors"
	"fmt"
	"path/filepath"
)

// DefaultMargin leaves 10% headroom on top of the payload size.
const DefaultMargin = 1.1

// InsufficientSpaceError reports a write that would not fit on the volume.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space for %s: need %s, have %s available",
		e.Path, formatBytes(e.RequiredBytes), formatBytes(e.AvailableBytes))
}

// IsInsufficientSpaceError reports whether err wraps an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}

// Check returns an InsufficientSpaceError when the volume holding target
// has less than size*margin bytes free. Volumes that cannot be queried pass.
func Check(target string, size int64, margin float64) error {
	available, ok := Available(target)
	if !ok {
		return nil
	}
	if margin < 1 {
		margin = 1
	}
	required := int64(float64(size) * margin)
	if available < required {
		return &InsufficientSpaceError{Path: target, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// Available returns the free bytes for the volume holding target. The
// target itself may not exist yet; its parent directory is queried.
func Available(target string) (int64, bool) {
	n, err := availableBytes(filepath.Dir(target))
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
