// Package progress reports per-page sync progress to the CLI.
package progress

import (
	"fmt"
	"sync"
)

// Reporter receives progress events from the sync engine
type Reporter interface {
	// SetTotal announces how many documents the run will process
	SetTotal(totalDocs int)
	// Start begins tracking one document
	Start(path string)
	// Complete marks the current document as done with its outcome
	Complete(outcome string)
	// Error reports a per-document failure
	Error(err error)
}

// Update is one progress event delivered to a callback
type Update struct {
	Type      UpdateType
	Path      string
	Outcome   string
	Completed int
	Total     int
	Err       error
}

// UpdateType indicates the kind of progress event
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateComplete
	UpdateError
)

// Callback receives progress updates
type Callback func(update Update)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback  Callback
	mu        sync.Mutex
	current   string
	total     int
	completed int
}

// NewCallbackReporter creates a reporter delivering events to callback
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{callback: callback}
}

// SetTotal implements Reporter
func (r *CallbackReporter) SetTotal(totalDocs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = totalDocs
}

// Start implements Reporter
func (r *CallbackReporter) Start(path string) {
	r.mu.Lock()
	r.current = path
	update := Update{Type: UpdateStart, Path: path, Completed: r.completed, Total: r.total}
	cb := r.callback
	r.mu.Unlock()

	// Deliver outside the lock so callbacks may call back in
	if cb != nil {
		cb(update)
	}
}

// Complete implements Reporter
func (r *CallbackReporter) Complete(outcome string) {
	r.mu.Lock()
	r.completed++
	update := Update{
		Type:      UpdateComplete,
		Path:      r.current,
		Outcome:   outcome,
		Completed: r.completed,
		Total:     r.total,
	}
	cb := r.callback
	r.mu.Unlock()

	if cb != nil {
		cb(update)
	}
}

// Error implements Reporter
func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	r.completed++
	update := Update{
		Type:      UpdateError,
		Path:      r.current,
		Completed: r.completed,
		Total:     r.total,
		Err:       err,
	}
	cb := r.callback
	r.mu.Unlock()

	if cb != nil {
		cb(update)
	}
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) SetTotal(totalDocs int)    {}
func (NullReporter) Start(path string)         {}
func (NullReporter) Complete(outcome string)   {}
func (NullReporter) Error(err error)           {}

// FormatCount renders "n/total" progress, tolerating an unset total
func FormatCount(completed, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d", completed)
	}
	return fmt.Sprintf("%d/%d", completed, total)
}
