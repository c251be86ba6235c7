// Package links renders the child navigation fragment written into
// container page bodies during the back-fill pass.
package links

import (
	"html"
	"strings"
)

// Untitled is substituted for children with an empty title so the
// rendered fragment stays well formed.
const Untitled = "(untitled)"

// Child is one linkable child page
type Child struct {
	// Title is the page title the link resolves against
	Title string

	// ID is the remote page ID (kept for callers that want URL links;
	// storage-format links resolve by title)
	ID string
}

// Render builds the storage-format body for a container page: a heading
// plus one labeled section per child kind. Both sections are always
// present, even when empty, so the page structure is stable across runs.
// Pure function.
func Render(folderTitle string, folders, pages []Child) string {
	var b strings.Builder

	b.WriteString("<h1>Folder: ")
	b.WriteString(escapeTitle(folderTitle))
	b.WriteString("</h1>\n")

	renderSection(&b, "This folder contains the following folders:", folders)
	renderSection(&b, "This folder contains the following pages:", pages)

	return b.String()
}

func renderSection(b *strings.Builder, heading string, children []Child) {
	b.WriteString("<h2>")
	b.WriteString(heading)
	b.WriteString("</h2>\n<ul>\n")
	for _, c := range children {
		b.WriteString(`<li><ac:link><ri:page ri:content-title="`)
		b.WriteString(escapeTitle(c.Title))
		b.WriteString(`" /></ac:link></li>` + "\n")
	}
	b.WriteString("</ul>\n")
}

func escapeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return Untitled
	}
	return html.EscapeString(title)
}
