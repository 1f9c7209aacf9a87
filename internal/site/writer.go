package site

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"scriptbook/internal/fileutil"
)

// Writer places rendered files under the docs directory.
type Writer struct {
	docsDir string
	dryRun  bool
}

// NewWriter returns a writer rooted at docsDir. A dry-run writer only reports
// what would change.
func NewWriter(docsDir string, dryRun bool) *Writer {
	return &Writer{docsDir: docsDir, dryRun: dryRun}
}

// Path resolves a docs-relative slash path to a filesystem path.
func (w *Writer) Path(rel string) string {
	return filepath.Join(w.docsDir, filepath.FromSlash(rel))
}

// Write stores data at rel unless identical content is already there. It
// reports whether the file changed (or would change, for a dry run).
func (w *Writer) Write(rel string, data []byte) (bool, error) {
	target := w.Path(rel)
	if w.dryRun {
		existing, err := os.ReadFile(target)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return true, nil
			}
			return false, err
		}
		return !bytes.Equal(existing, data), nil
	}
	return fileutil.WriteFileIfChanged(target, data, 0o644)
}

// Remove deletes rel and any season directory left empty behind it.
func (w *Writer) Remove(rel string) error {
	if w.dryRun {
		return nil
	}
	return fileutil.RemoveFile(w.Path(rel), w.docsDir)
}
