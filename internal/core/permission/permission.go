// Package permission resolves page access levels from the filename
// suffix convention: a bracketed tag before the extension, e.g.
// "Runbook [RES].docx". The tag is stripped from the display title.
package permission

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ardietz/confsync/internal/domain"
)

// tagPattern matches a trailing bracketed tag in a base name
var tagPattern = regexp.MustCompile(`\s*\[([A-Za-z]+)\]\s*$`)

// Resolve returns the display title and access level for a document
// filename. Untagged files and unknown tags get the fallback level;
// only an unknown tag produces a warning. Pure function, no error paths.
func Resolve(filename string, fallback domain.Permission) (title string, perm domain.Permission, warning string) {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	match := tagPattern.FindStringSubmatch(name)
	if match == nil {
		return strings.TrimSpace(name), fallback, ""
	}

	title = strings.TrimSpace(tagPattern.ReplaceAllString(name, ""))

	switch strings.ToUpper(match[1]) {
	case "INT":
		return title, domain.PermissionInternal, ""
	case "PUB":
		// Treated identically to internal; the tag only documents intent
		return title, domain.PermissionOrganization, ""
	case "RES":
		return title, domain.PermissionRestricted, ""
	default:
		return title, fallback,
			fmt.Sprintf("unknown permission tag %q in %q, using default", match[1], base)
	}
}
