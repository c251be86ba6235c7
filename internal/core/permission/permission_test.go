package permission

import (
	"strings"
	"testing"

	"github.com/ardietz/confsync/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantTitle   string
		wantPerm    domain.Permission
		wantWarning bool
	}{
		{
			name:      "no tag defaults to internal",
			filename:  "Onboarding Guide.docx",
			wantTitle: "Onboarding Guide",
			wantPerm:  domain.PermissionInternal,
		},
		{
			name:      "internal tag",
			filename:  "Runbook [INT].docx",
			wantTitle: "Runbook",
			wantPerm:  domain.PermissionInternal,
		},
		{
			name:      "public tag",
			filename:  "Release Notes [PUB].docx",
			wantTitle: "Release Notes",
			wantPerm:  domain.PermissionOrganization,
		},
		{
			name:      "restricted tag",
			filename:  "Salaries [RES].docx",
			wantTitle: "Salaries",
			wantPerm:  domain.PermissionRestricted,
		},
		{
			name:      "lowercase tag accepted",
			filename:  "Notes [res].docx",
			wantTitle: "Notes",
			wantPerm:  domain.PermissionRestricted,
		},
		{
			name:        "unknown tag falls back with warning",
			filename:    "Plan [SECRET].docx",
			wantTitle:   "Plan",
			wantPerm:    domain.PermissionInternal,
			wantWarning: true,
		},
		{
			name:      "tag without surrounding space",
			filename:  "Budget[RES].docx",
			wantTitle: "Budget",
			wantPerm:  domain.PermissionRestricted,
		},
		{
			name:      "brackets in the middle are not a tag",
			filename:  "Q1 [draft] report.docx",
			wantTitle: "Q1 [draft] report",
			wantPerm:  domain.PermissionInternal,
		},
		{
			name:      "full path is reduced to base name",
			filename:  "/data/hr/Policies [RES].docx",
			wantTitle: "Policies",
			wantPerm:  domain.PermissionRestricted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, perm, warning := Resolve(tt.filename, domain.PermissionInternal)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if perm != tt.wantPerm {
				t.Errorf("perm = %v, want %v", perm, tt.wantPerm)
			}
			if tt.wantWarning && warning == "" {
				t.Errorf("expected a warning, got none")
			}
			if !tt.wantWarning && warning != "" {
				t.Errorf("unexpected warning: %s", warning)
			}
		})
	}
}

func TestResolve_TitleNeverContainsTag(t *testing.T) {
	for _, f := range []string{
		"A [INT].docx", "B [PUB].docx", "C [RES].docx", "D [XYZ].docx",
	} {
		title, _, _ := Resolve(f, domain.PermissionInternal)
		if strings.ContainsAny(title, "[]") {
			t.Errorf("Resolve(%q) title %q still contains bracket tag", f, title)
		}
	}
}

func TestResolve_FallbackApplies(t *testing.T) {
	_, perm, warning := Resolve("Plain.docx", domain.PermissionRestricted)
	if perm != domain.PermissionRestricted || warning != "" {
		t.Errorf("untagged file: perm = %v, warning = %q", perm, warning)
	}

	_, perm, warning = Resolve("Plan [SECRET].docx", domain.PermissionRestricted)
	if perm != domain.PermissionRestricted {
		t.Errorf("unknown tag: perm = %v", perm)
	}
	if warning == "" {
		t.Error("unknown tag should warn")
	}

	// An explicit tag always wins over the fallback
	_, perm, _ = Resolve("Runbook [INT].docx", domain.PermissionRestricted)
	if perm != domain.PermissionInternal {
		t.Errorf("explicit tag overridden by fallback: %v", perm)
	}
}

func TestResolve_IntAndPubAreEquivalent(t *testing.T) {
	_, intPerm, _ := Resolve("A [INT].docx", domain.PermissionInternal)
	_, pubPerm, _ := Resolve("A [PUB].docx", domain.PermissionInternal)

	if intPerm.IsRestricted() || pubPerm.IsRestricted() {
		t.Fatalf("INT/PUB must not be restricted: %v, %v", intPerm, pubPerm)
	}
}
