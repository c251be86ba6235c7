// Package convert turns DOCX documents into Confluence storage-format
// HTML. A .docx file is a zip archive; the body lives in
// word/document.xml as WordprocessingML.
package convert

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/ardietz/confsync/internal/domain"
)

const documentEntry = "word/document.xml"

// Converter converts document files to page bodies
type Converter interface {
	// Convert returns the HTML body for the document at path, plus any
	// structural warnings. Failures wrap domain.ErrConversion.
	Convert(path string) (body string, warnings []string, err error)
}

// DocxConverter converts Word documents. Paragraph styles named
// "HeadingN" become <hN>; bold, italic and underline runs become
// strong/em/u; tables become plain HTML tables.
type DocxConverter struct{}

// NewDocxConverter creates a converter
func NewDocxConverter() *DocxConverter {
	return &DocxConverter{}
}

// WordprocessingML subset. Only body-level paragraphs and tables are
// read; paragraphs inside table cells are handled by the table walk.
type docxDocument struct {
	XMLName    xml.Name        `xml:"document"`
	Paragraphs []docxParagraph `xml:"body>p"`
	Tables     []docxTable     `xml:"body>tbl"`
}

type docxParagraph struct {
	Props docxParaProps `xml:"pPr"`
	Runs  []docxRun     `xml:"r"`
}

type docxParaProps struct {
	Style docxStyle `xml:"pStyle"`
}

type docxStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Props *docxRunProps `xml:"rPr"`
	Texts []string      `xml:"t"`
}

type docxRunProps struct {
	Bold      *docxToggle `xml:"b"`
	Italic    *docxToggle `xml:"i"`
	Underline *docxToggle `xml:"u"`
}

type docxToggle struct {
	Val string `xml:"val,attr"`
}

// enabled reports whether a run property toggle is on. Presence of the
// element means on unless the val attribute turns it off.
func (t *docxToggle) enabled() bool {
	if t == nil {
		return false
	}
	switch strings.ToLower(t.Val) {
	case "false", "0", "none":
		return false
	}
	return true
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

// Convert implements Converter
func (c *DocxConverter) Convert(path string) (string, []string, error) {
	doc, err := readDocument(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %v", domain.ErrConversion, path, err)
	}

	var warnings []string
	var parts []string

	for _, para := range doc.Paragraphs {
		text := paragraphText(para)
		if strings.TrimSpace(text) == "" {
			continue
		}

		if level, ok := headingLevel(para.Props.Style.Val); ok {
			if level > 6 {
				warnings = append(warnings,
					fmt.Sprintf("heading level %d clamped to 6", level))
				level = 6
			}
			parts = append(parts, fmt.Sprintf("<h%d>%s</h%d>", level, html.EscapeString(text), level))
			continue
		}

		parts = append(parts, renderParagraph(para))
	}

	for _, table := range doc.Tables {
		parts = append(parts, renderTable(table))
	}

	if len(parts) == 0 {
		warnings = append(warnings, "document has no convertible content")
	}

	return strings.Join(parts, "\n"), warnings, nil
}

// readDocument extracts and parses word/document.xml from the archive
func readDocument(path string) (*docxDocument, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != documentEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		var doc docxDocument
		if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %v", documentEntry, err)
		}
		return &doc, nil
	}

	return nil, fmt.Errorf("%s not found in archive", documentEntry)
}

// headingLevel parses style values like "Heading1" or "Heading 2"
func headingLevel(style string) (int, bool) {
	if !strings.HasPrefix(style, "Heading") {
		return 0, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(style, "Heading"))
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 {
		return 0, false
	}
	return level, true
}

// paragraphText concatenates the plain text of all runs
func paragraphText(p docxParagraph) string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Texts {
			b.WriteString(t)
		}
	}
	return b.String()
}

// renderParagraph renders a body paragraph with run-level styling
func renderParagraph(p docxParagraph) string {
	var b strings.Builder
	b.WriteString("<p>")
	for _, run := range p.Runs {
		text := html.EscapeString(strings.Join(run.Texts, ""))
		if run.Props != nil {
			if run.Props.Bold.enabled() {
				text = "<strong>" + text + "</strong>"
			}
			if run.Props.Italic.enabled() {
				text = "<em>" + text + "</em>"
			}
			if run.Props.Underline.enabled() {
				text = "<u>" + text + "</u>"
			}
		}
		b.WriteString(text)
	}
	b.WriteString("</p>")
	return b.String()
}

// renderTable renders a table with cell text only; nested styling inside
// cells is flattened
func renderTable(t docxTable) string {
	var b strings.Builder
	b.WriteString("<table><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, cell := range row.Cells {
			var texts []string
			for _, p := range cell.Paragraphs {
				if txt := paragraphText(p); txt != "" {
					texts = append(texts, txt)
				}
			}
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(strings.Join(texts, " ")))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

var _ Converter = (*DocxConverter)(nil)
