package convert

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardietz/confsync/internal/domain"
)

// writeDocx creates a minimal .docx archive containing the given
// WordprocessingML body content.
func writeDocx(t *testing.T, bodyXML string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	content := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + bodyXML + `</w:body></w:document>`
	if _, err := entry.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestConvert_PlainParagraphs(t *testing.T) {
	path := writeDocx(t, para("First")+para("Second"))

	body, warnings, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	want := "<p>First</p>\n<p>Second</p>"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestConvert_Headings(t *testing.T) {
	path := writeDocx(t,
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Title</w:t></w:r></w:p>`+
			`<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Section</w:t></w:r></w:p>`+
			para("Body text"))

	body, _, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(body, "<h1>Title</h1>") {
		t.Errorf("missing h1:\n%s", body)
	}
	if !strings.Contains(body, "<h2>Section</h2>") {
		t.Errorf("missing h2:\n%s", body)
	}
	if !strings.Contains(body, "<p>Body text</p>") {
		t.Errorf("missing paragraph:\n%s", body)
	}
}

func TestConvert_RunStyling(t *testing.T) {
	path := writeDocx(t,
		`<w:p>`+
			`<w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r>`+
			`<w:r><w:rPr><w:i/></w:rPr><w:t>italic</w:t></w:r>`+
			`<w:r><w:rPr><w:u w:val="single"/></w:rPr><w:t>underlined</w:t></w:r>`+
			`<w:r><w:rPr><w:b w:val="false"/></w:rPr><w:t>plain</w:t></w:r>`+
			`</w:p>`)

	body, _, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, want := range []string{
		"<strong>bold</strong>", "<em>italic</em>", "<u>underlined</u>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<strong>plain</strong>") {
		t.Errorf("b with val=false must not bold:\n%s", body)
	}
}

func TestConvert_EscapesText(t *testing.T) {
	path := writeDocx(t, para("a &amp; b &lt;c&gt;"))

	body, _, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(body, "a &amp; b &lt;c&gt;") {
		t.Errorf("text not escaped:\n%s", body)
	}
	if strings.Contains(body, "<c>") {
		t.Errorf("raw markup leaked:\n%s", body)
	}
}

func TestConvert_Tables(t *testing.T) {
	path := writeDocx(t,
		`<w:tbl><w:tr>`+
			`<w:tc><w:p><w:r><w:t>cell 1</w:t></w:r></w:p></w:tc>`+
			`<w:tc><w:p><w:r><w:t>cell 2</w:t></w:r></w:p></w:tc>`+
			`</w:tr></w:tbl>`)

	body, _, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := "<table><tbody><tr><td>cell 1</td><td>cell 2</td></tr></tbody></table>"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestConvert_EmptyParagraphsSkipped(t *testing.T) {
	path := writeDocx(t, `<w:p></w:p>`+para("kept")+`<w:p><w:r><w:t>   </w:t></w:r></w:p>`)

	body, _, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if body != "<p>kept</p>" {
		t.Errorf("body = %q, want only the non-empty paragraph", body)
	}
}

func TestConvert_EmptyDocumentWarns(t *testing.T) {
	path := writeDocx(t, "")

	body, warnings, err := NewDocxConverter().Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
	if len(warnings) != 1 {
		t.Errorf("expected an empty-document warning, got %v", warnings)
	}
}

func TestConvert_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := NewDocxConverter().Convert(path)
	if !errors.Is(err, domain.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestConvert_MissingFile(t *testing.T) {
	_, _, err := NewDocxConverter().Convert(filepath.Join(t.TempDir(), "nope.docx"))
	if !errors.Is(err, domain.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}
