// Package walker enumerates a local directory tree into the ordered,
// parent-linked node list the sync engine operates on.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardietz/confsync/internal/core/permission"
	"github.com/ardietz/confsync/internal/domain"
)

// DocumentExtension identifies document files; everything else is skipped
const DocumentExtension = ".docx"

// Result is the output of a tree walk
type Result struct {
	// Nodes in depth-first preorder: every node's parent appears
	// strictly earlier in the slice
	Nodes []domain.TreeNode

	// Warnings records unreadable subdirectories and ambiguous
	// permission tags encountered during the walk
	Warnings []string
}

// Node returns the node with the given path, or nil
func (r *Result) Node(path string) *domain.TreeNode {
	if i := r.index(path); i >= 0 {
		return &r.Nodes[i]
	}
	return nil
}

// index returns the slice index of the node with the given path, or -1.
// Appending to Nodes can reallocate the slice, so internal callers hold
// indexes rather than pointers.
func (r *Result) index(path string) int {
	for i := range r.Nodes {
		if r.Nodes[i].Path == path {
			return i
		}
	}
	return -1
}

// Walk enumerates the tree rooted at root. Each directory becomes a
// container node and each document file a document node; defaultPerm
// applies to documents whose filename carries no recognized tag. The
// root being missing or unreadable is fatal; an unreadable subdirectory
// only produces a warning and its subtree is skipped.
func Walk(root string, defaultPerm domain.Permission) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrRead, absRoot)
	}

	res := &Result{}
	res.Nodes = append(res.Nodes, domain.TreeNode{
		Kind:  domain.KindContainer,
		Path:  absRoot,
		Title: filepath.Base(absRoot),
	})

	if err := walkDir(res, absRoot, defaultPerm, true); err != nil {
		return nil, err
	}
	return res, nil
}

// walkDir emits nodes for the entries of dir in lexicographic order,
// recursing into subdirectories as they are encountered. fatal marks the
// walk root, whose read failure aborts the whole walk.
func walkDir(res *Result, dir string, defaultPerm domain.Permission, fatal bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if fatal {
			return fmt.Errorf("%w: %v", domain.ErrRead, err)
		}
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("skipping unreadable directory %s: %v", dir, err))
		return nil
	}

	parent := res.index(dir)

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			res.Nodes[parent].ChildPaths = append(res.Nodes[parent].ChildPaths, path)
			res.Nodes = append(res.Nodes, domain.TreeNode{
				Kind:       domain.KindContainer,
				Path:       path,
				Title:      entry.Name(),
				ParentPath: dir,
			})
			if err := walkDir(res, path, defaultPerm, false); err != nil {
				return err
			}
			continue
		}

		if !strings.EqualFold(filepath.Ext(entry.Name()), DocumentExtension) {
			continue
		}

		title, perm, warning := permission.Resolve(entry.Name(), defaultPerm)
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}

		res.Nodes[parent].ChildPaths = append(res.Nodes[parent].ChildPaths, path)
		res.Nodes = append(res.Nodes, domain.TreeNode{
			Kind:       domain.KindDocument,
			Path:       path,
			Title:      title,
			ParentPath: dir,
			Permission: perm,
		})
	}

	return nil
}
