// Package diff renders unified diffs between a notebook's online copy and
// its local file.
package diff

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines around each hunk.
const DefaultContext = 3

// Strings returns the unified diff turning a into b. An empty result means
// the inputs are equal.
func Strings(a, b, fromName, toName string, context int) (string, error) {
	if context < 0 {
		context = DefaultContext
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	})
}

// Files diffs the online copy against the local file. Labels name the
// sides in the header; empty labels fall back to the file paths.
func Files(remoteCopy, localPath, remoteLabel, localLabel string) (string, error) {
	a, err := os.ReadFile(remoteCopy)
	if err != nil {
		return "", fmt.Errorf("failed to read online copy: %w", err)
	}
	b, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read local file: %w", err)
	}

	if remoteLabel == "" {
		remoteLabel = remoteCopy
	}
	if localLabel == "" {
		localLabel = localPath
	}
	return Strings(string(a), string(b), remoteLabel, localLabel, DefaultContext)
}
