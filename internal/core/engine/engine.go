// Package engine implements the three-pass hierarchy synchronizer: pass
// one ensures a container page per directory, pass two ensures a content
// page with attachment per document, and pass three back-fills every
// container body with links to its children.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ardietz/confsync/internal/convert"
	"github.com/ardietz/confsync/internal/core/checksum"
	"github.com/ardietz/confsync/internal/core/links"
	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/logger"
	"github.com/ardietz/confsync/internal/progress"
	"github.com/ardietz/confsync/internal/remote"
)

// ChecksumStore remembers document content hashes between runs so
// unchanged documents are not re-uploaded.
type ChecksumStore interface {
	// Checksum returns the recorded hash for a path, if any
	Checksum(path string) (string, bool)

	// SetChecksum records the hash and page ID for a path
	SetChecksum(path, sum, pageID string) error
}

// Engine drives a sync run. It owns the node list for the duration of
// Run; execution is strictly sequential, so no node is processed before
// its parent is ensured and no two writes race on one parent's children.
type Engine struct {
	remote    remote.Service
	converter convert.Converter
	store     ChecksumStore
	reporter  progress.Reporter
	log       logger.Logger
}

// New creates an engine. store and reporter are optional.
func New(svc remote.Service, converter convert.Converter) *Engine {
	return &Engine{
		remote:    svc,
		converter: converter,
		reporter:  progress.NullReporter{},
		log:       logger.With("component", "engine"),
	}
}

// SetChecksumStore enables unchanged-document detection
func (e *Engine) SetChecksumStore(store ChecksumStore) {
	e.store = store
}

// SetReporter sets the progress reporter
func (e *Engine) SetReporter(reporter progress.Reporter) {
	if reporter != nil {
		e.reporter = reporter
	}
}

// run carries the mutable state of one sync run
type run struct {
	nodes    []domain.TreeNode
	index    map[string]int
	results  map[string]domain.NodeResult
	warnings []string

	// rootTitle overrides the walk root's title when syncing under an
	// existing page, so the back-fill never renames it
	rootTitle string
}

func (r *run) node(path string) *domain.TreeNode {
	if i, ok := r.index[path]; ok {
		return &r.nodes[i]
	}
	return nil
}

func (r *run) setResult(n *domain.TreeNode, status domain.NodeStatus, reason string) {
	r.results[n.Path] = domain.NodeResult{
		Path:   n.Path,
		Title:  n.Title,
		Kind:   n.Kind,
		Status: status,
		PageID: n.RemoteID,
		Reason: reason,
	}
}

// blocked reports whether the node's subtree must be skipped because the
// node itself failed or was skipped
func (r *run) blocked(path string) bool {
	res, ok := r.results[path]
	if !ok {
		return false
	}
	return res.Status == domain.StatusFailed || res.Status == domain.StatusSkipped
}

func (r *run) title(n *domain.TreeNode) string {
	if n.IsRoot() && r.rootTitle != "" {
		return r.rootTitle
	}
	return n.Title
}

// Run synchronizes the walked tree. rootPageID, when set, names an
// existing page to sync under instead of creating a top-level container
// for the walk root. Per-node failures are collected in the report; only
// a fatal precondition (nil node list) returns an error.
func (e *Engine) Run(ctx context.Context, nodes []domain.TreeNode, rootPageID string) (*domain.SyncReport, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no nodes to sync")
	}

	r := &run{
		nodes:   make([]domain.TreeNode, len(nodes)),
		index:   make(map[string]int, len(nodes)),
		results: make(map[string]domain.NodeResult, len(nodes)),
	}
	copy(r.nodes, nodes)
	for i := range r.nodes {
		r.index[r.nodes[i].Path] = i
	}

	report := &domain.SyncReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	e.log.Info("sync run starting", "run_id", report.RunID, "nodes", len(r.nodes))

	var docs int
	for i := range r.nodes {
		if r.nodes[i].Kind == domain.KindDocument {
			docs++
		}
	}
	e.reporter.SetTotal(docs)

	e.ensureContainers(ctx, r, rootPageID)
	e.ensureDocuments(ctx, r)
	e.linkContainers(ctx, r)

	report.FinishedAt = time.Now()
	report.Warnings = r.warnings
	for i := range r.nodes {
		report.Results = append(report.Results, r.results[r.nodes[i].Path])
	}

	stats := report.Stats()
	e.log.Info("sync run finished",
		"run_id", report.RunID,
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	return report, nil
}

// ensureContainers is pass one: create or adopt one container page per
// directory node, in walk order so parents are ensured first.
func (e *Engine) ensureContainers(ctx context.Context, r *run, rootPageID string) {
	for i := range r.nodes {
		n := &r.nodes[i]
		if n.Kind != domain.KindContainer {
			continue
		}

		if n.IsRoot() && rootPageID != "" {
			// Sync under an existing page; fetch it so the back-fill
			// keeps its remote title.
			page, err := e.remote.GetPage(ctx, rootPageID)
			if err != nil {
				e.fail(r, n, fmt.Errorf("root page %s: %w", rootPageID, err))
				continue
			}
			n.RemoteID = page.ID
			n.State = domain.StateEnsured
			r.rootTitle = page.Title
			r.setResult(n, domain.StatusUnchanged, "")
			continue
		}

		parentID := ""
		if !n.IsRoot() {
			parent := r.node(n.ParentPath)
			if parent == nil || r.blocked(parent.Path) {
				e.skip(r, n, "parent was not synced")
				continue
			}
			parentID = parent.RemoteID
		}

		n.State = domain.StateResolving
		existing, err := e.remote.FindPage(ctx, n.Title, parentID)
		switch {
		case err == nil:
			n.RemoteID = existing.ID
			n.State = domain.StateEnsured
			r.setResult(n, domain.StatusUpdated, "")
			e.log.Debug("container adopted", "title", n.Title, "page_id", existing.ID)

		case errors.Is(err, domain.ErrNotFound):
			id, createErr := e.remote.CreatePage(ctx, n.Title, parentID, placeholderBody(n.Title))
			if createErr != nil {
				e.fail(r, n, createErr)
				continue
			}
			n.RemoteID = id
			n.State = domain.StateEnsured
			r.setResult(n, domain.StatusCreated, "")
			e.log.Debug("container created", "title", n.Title, "page_id", id)

		default:
			e.fail(r, n, err)
		}
	}
}

// ensureDocuments is pass two: create or update one content page per
// document node, upload the original file, and apply its permission.
func (e *Engine) ensureDocuments(ctx context.Context, r *run) {
	for i := range r.nodes {
		n := &r.nodes[i]
		if n.Kind != domain.KindDocument {
			continue
		}

		parent := r.node(n.ParentPath)
		if parent == nil || parent.State < domain.StateEnsured {
			e.skip(r, n, "parent was not synced")
			continue
		}

		e.reporter.Start(n.Path)
		n.State = domain.StateResolving

		sum, err := checksum.File(ctx, n.Path)
		if err != nil {
			e.fail(r, n, fmt.Errorf("hashing %s: %w", n.Path, err))
			e.reporter.Error(err)
			continue
		}

		existing, err := e.remote.FindPage(ctx, n.Title, parent.RemoteID)
		switch {
		case err == nil:
			n.RemoteID = existing.ID
			if e.unchanged(n.Path, sum) {
				n.State = domain.StateEnsured
				r.setResult(n, domain.StatusUnchanged, "")
				e.reporter.Complete(string(domain.StatusUnchanged))
				continue
			}
			if e.uploadDocument(ctx, r, n, sum, false) {
				r.setResult(n, domain.StatusUpdated, "")
				e.reporter.Complete(string(domain.StatusUpdated))
			} else {
				e.reporter.Error(fmt.Errorf("upload failed: %s", n.Path))
			}

		case errors.Is(err, domain.ErrNotFound):
			if e.uploadDocument(ctx, r, n, sum, true) {
				r.setResult(n, domain.StatusCreated, "")
				e.reporter.Complete(string(domain.StatusCreated))
			} else {
				e.reporter.Error(fmt.Errorf("upload failed: %s", n.Path))
			}

		default:
			e.fail(r, n, err)
			e.reporter.Error(err)
		}
	}
}

// uploadDocument converts and writes one document page plus its
// attachment and permission. create selects create-vs-update. Returns
// false after recording the failure.
func (e *Engine) uploadDocument(ctx context.Context, r *run, n *domain.TreeNode, sum string, create bool) bool {
	body, warnings, err := e.converter.Convert(n.Path)
	if err != nil {
		e.fail(r, n, err)
		return false
	}
	for _, w := range warnings {
		r.warnings = append(r.warnings, fmt.Sprintf("%s: %s", n.Path, w))
	}

	if create {
		parent := r.node(n.ParentPath)
		id, err := e.remote.CreatePage(ctx, n.Title, parent.RemoteID, body)
		if err != nil {
			e.fail(r, n, err)
			return false
		}
		n.RemoteID = id
	} else {
		if err := e.remote.UpdatePage(ctx, n.RemoteID, n.Title, body); err != nil {
			e.fail(r, n, err)
			return false
		}
	}

	if err := e.remote.UploadAttachment(ctx, n.RemoteID, n.Path); err != nil {
		e.fail(r, n, fmt.Errorf("attachment: %w", err))
		return false
	}

	if err := e.remote.ApplyPermission(ctx, n.RemoteID, n.Permission); err != nil {
		e.fail(r, n, fmt.Errorf("permission: %w", err))
		return false
	}

	n.State = domain.StateEnsured
	e.recordChecksum(n, sum)
	return true
}

// linkContainers is pass three: rewrite every ensured container's body
// with the rendered child link lists, now that child page IDs are known.
func (e *Engine) linkContainers(ctx context.Context, r *run) {
	for i := range r.nodes {
		n := &r.nodes[i]
		if n.Kind != domain.KindContainer || n.State != domain.StateEnsured {
			continue
		}

		var folders, pages []links.Child
		for _, childPath := range n.ChildPaths {
			child := r.node(childPath)
			if child == nil || child.RemoteID == "" {
				// Failed or skipped children stay out of the link lists
				continue
			}
			entry := links.Child{Title: child.Title, ID: child.RemoteID}
			if child.Kind == domain.KindContainer {
				folders = append(folders, entry)
			} else {
				pages = append(pages, entry)
			}
		}

		title := r.title(n)
		body := links.Render(title, folders, pages)
		if err := e.remote.UpdatePage(ctx, n.RemoteID, title, body); err != nil {
			e.fail(r, n, fmt.Errorf("back-fill: %w", err))
			continue
		}
		n.State = domain.StateLinked

		// Adopted and updated containers both end up rewritten; keep
		// whichever status pass one assigned, promoting the adopted
		// root's placeholder status.
		if res := r.results[n.Path]; res.Status == domain.StatusUnchanged && n.IsRoot() {
			r.setResult(n, domain.StatusUpdated, "")
		}
	}
}

// unchanged reports whether the stored checksum matches
func (e *Engine) unchanged(path, sum string) bool {
	if e.store == nil || sum == "" {
		return false
	}
	stored, ok := e.store.Checksum(path)
	return ok && stored == sum
}

// recordChecksum persists the hash after a successful upload
func (e *Engine) recordChecksum(n *domain.TreeNode, sum string) {
	if e.store == nil || sum == "" {
		return
	}
	if err := e.store.SetChecksum(n.Path, sum, n.RemoteID); err != nil {
		e.log.Warn("failed to record checksum", "path", n.Path, "error", err)
	}
}

func (e *Engine) fail(r *run, n *domain.TreeNode, err error) {
	e.log.Error("node failed", "path", n.Path, "kind", n.Kind.String(), "error", err)
	r.setResult(n, domain.StatusFailed, err.Error())
}

func (e *Engine) skip(r *run, n *domain.TreeNode, reason string) {
	e.log.Warn("node skipped", "path", n.Path, "reason", reason)
	r.setResult(n, domain.StatusSkipped, reason)
}

// placeholderBody is the initial body of a freshly created container;
// the back-fill pass overwrites it once children exist
func placeholderBody(title string) string {
	return links.Render(title, nil, nil)
}
