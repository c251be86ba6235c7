package domain

import "time"

// NodeStatus is the per-node outcome of a sync run
type NodeStatus string

const (
	// StatusCreated means a new remote page was created for the node
	StatusCreated NodeStatus = "created"

	// StatusUpdated means an existing remote page was overwritten
	StatusUpdated NodeStatus = "updated"

	// StatusUnchanged means the node resolved to an existing page and its
	// content had not changed since the previous run
	StatusUnchanged NodeStatus = "unchanged"

	// StatusSkipped means the node was not processed because an ancestor failed
	StatusSkipped NodeStatus = "skipped"

	// StatusFailed means creating or updating the node's page failed
	StatusFailed NodeStatus = "failed"
)

// NodeResult records the outcome for a single tree node
type NodeResult struct {
	// Path is the local path of the node
	Path string

	// Title is the node's display title
	Title string

	// Kind indicates container or document
	Kind NodeKind

	// Status is the sync outcome
	Status NodeStatus

	// PageID is the remote page ID, when known
	PageID string

	// Reason explains a failure or skip
	Reason string
}

// SyncReport is the first-class result of a sync run. Per-node failures are
// collected here instead of aborting the run; the run succeeds only if the
// failure list is empty.
type SyncReport struct {
	// RunID uniquely identifies this run
	RunID string

	// StartedAt and FinishedAt bound the run
	StartedAt  time.Time
	FinishedAt time.Time

	// Results holds one entry per node, in walk order
	Results []NodeResult

	// Warnings collects non-fatal observations (unreadable subdirectories,
	// conversion warnings, ambiguous permission tags)
	Warnings []string
}

// Stats summarizes a report
type Stats struct {
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Failed    int
}

// Stats computes summary counts over all results
func (r *SyncReport) Stats() Stats {
	var s Stats
	for _, res := range r.Results {
		switch res.Status {
		case StatusCreated:
			s.Created++
		case StatusUpdated:
			s.Updated++
		case StatusUnchanged:
			s.Unchanged++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Failed returns the results that failed
func (r *SyncReport) Failed() []NodeResult {
	var failed []NodeResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Skipped returns the results that were skipped
func (r *SyncReport) Skipped() []NodeResult {
	var skipped []NodeResult
	for _, res := range r.Results {
		if res.Status == StatusSkipped {
			skipped = append(skipped, res)
		}
	}
	return skipped
}

// Success reports whether the run completed without node failures
func (r *SyncReport) Success() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return false
		}
	}
	return true
}
