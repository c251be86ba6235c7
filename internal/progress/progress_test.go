package progress

import (
	"errors"
	"testing"
)

func TestCallbackReporter_Flow(t *testing.T) {
	var updates []Update
	r := NewCallbackReporter(func(u Update) { updates = append(updates, u) })

	r.SetTotal(2)
	r.Start("a.docx")
	r.Complete("created")
	r.Start("b.docx")
	r.Error(errors.New("boom"))

	if len(updates) != 4 {
		t.Fatalf("expected 4 updates, got %d", len(updates))
	}

	if updates[0].Type != UpdateStart || updates[0].Path != "a.docx" {
		t.Errorf("unexpected first update: %+v", updates[0])
	}
	if updates[1].Type != UpdateComplete || updates[1].Outcome != "created" || updates[1].Completed != 1 {
		t.Errorf("unexpected complete update: %+v", updates[1])
	}
	if updates[3].Type != UpdateError || updates[3].Err == nil || updates[3].Completed != 2 {
		t.Errorf("unexpected error update: %+v", updates[3])
	}
	if updates[3].Total != 2 {
		t.Errorf("total not carried: %+v", updates[3])
	}
}

func TestCallbackReporter_NilCallback(t *testing.T) {
	r := NewCallbackReporter(nil)
	r.SetTotal(1)
	r.Start("a")
	r.Complete("updated")
	// must not panic
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(3, 10); got != "3/10" {
		t.Errorf("FormatCount = %q", got)
	}
	if got := FormatCount(3, 0); got != "3" {
		t.Errorf("FormatCount without total = %q", got)
	}
}
