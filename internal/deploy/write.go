package deploy

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"dotagents/internal/fsutil"
)

// missingOnDisk reports whether any output file is absent.
func missingOnDisk(outputs []output) bool {
	for _, o := range outputs {
		if _, err := os.Stat(o.path); err != nil {
			return true
		}
	}
	return false
}

// diffOutputs returns the unified diff between what is on disk and what
// would be written. Files whose content is unchanged contribute nothing.
func diffOutputs(outputs []output) (string, error) {
	var b strings.Builder
	for _, o := range outputs {
		current, _, err := fsutil.ReadIfExists(o.path)
		if err != nil {
			return "", err
		}
		if bytes.Equal(current, o.content) {
			continue
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(current)),
			B:        difflib.SplitLines(string(o.content)),
			FromFile: o.path,
			ToFile:   o.path,
			Context:  3,
		})
		if err != nil {
			return "", err
		}
		b.WriteString(diff)
	}
	return b.String(), nil
}

// writeAll writes every output atomically. If one write fails, files written
// earlier in the same call are restored to their previous content.
func writeAll(outputs []output) error {
	type backup struct {
		path    string
		content []byte
		existed bool
	}
	var done []backup
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			b := done[i]
			if b.existed {
				_ = fsutil.AtomicWrite(b.path, b.content, 0o644)
				continue
			}
			_ = os.Remove(b.path)
		}
	}
	for _, o := range outputs {
		prev, existed, err := fsutil.ReadIfExists(o.path)
		if err != nil {
			rollback()
			return fmt.Errorf("DEPLOY_WRITE: %s: %w", o.path, err)
		}
		if err := fsutil.AtomicWrite(o.path, o.content, 0o644); err != nil {
			rollback()
			return fmt.Errorf("DEPLOY_WRITE: %s: %w", o.path, err)
		}
		done = append(done, backup{path: o.path, content: prev, existed: existed})
	}
	return nil
}
