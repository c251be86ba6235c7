// Package cleanup removes stray non-document files from the source tree.
// The sync engine only mirrors document files, so anything else under
// the source directory is noise it never uploads.
package cleanup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardietz/confsync/internal/core/walker"
	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/logger"
)

// Result reports the outcome of a deletion pass
type Result struct {
	// Deleted lists the files that were removed
	Deleted []string

	// Failed maps each file that could not be removed to its error
	Failed map[string]error
}

// ListStrayFiles returns every file under dir that is not a document,
// in walk order. Directories themselves are never listed.
func ListStrayFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", domain.ErrRead, dir)
	}

	var stray []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRead, err)
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), walker.DocumentExtension) {
			stray = append(stray, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stray, nil
}

// Delete removes the given files one by one. Failures do not stop the
// pass; they are collected in the result.
func Delete(files []string) *Result {
	log := logger.With("component", "cleanup")
	result := &Result{Failed: make(map[string]error)}

	for _, path := range files {
		if err := os.Remove(path); err != nil {
			log.Warn("failed to delete file", "path", path, "error", err)
			result.Failed[path] = err
			continue
		}
		log.Info("deleted file", "path", path)
		result.Deleted = append(result.Deleted, path)
	}

	return result
}
