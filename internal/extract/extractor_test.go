package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipOf builds an archive holding the given name/content pairs in order.
func zipOf(files ...string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		fw, _ := w.Create(files[i])
		_, _ = fw.Write([]byte(files[i+1]))
	}
	_ = w.Close()
	return buf.Bytes()
}

func docxBody(text string) string {
	return `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">` +
		text + `</w:t></w:r></w:p></w:body></w:document>`
}

func TestExtractBytes(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		content []byte
		want    string
	}{
		{"plain", ".txt", []byte("Hello world\nLine 2"), "Hello world\nLine 2"},
		{"utf8", ".md", []byte("caf\xc3\xa9"), "café"},
		{"invalid utf8", ".rst", []byte("hello\x80world"), "hello�world"},
		{"nul bytes", ".txt", []byte("a\x00b"), "ab"},
		{"unknown extension", ".xyz", []byte("raw content"), "raw content"},
		{"extension without dot", "TXT", []byte("upper"), "upper"},
		{"docx", ".docx", zipOf("word/document.xml", docxBody("Searchable docx content")), "Searchable docx content"},
		{"docx custom part", ".docx", zipOf(
			"[Content_Types].xml", `<Types><Override PartName="/word/document2.xml" ContentType="`+docxMainContentType+`"/></Types>`,
			"word/document2.xml", docxBody("Custom part"),
		), "Custom part"},
		{"docx reversed attributes", ".docx", zipOf(
			"[Content_Types].xml", `<Types><Override ContentType="`+docxMainContentType+`" PartName="/word/document3.xml"/></Types>`,
			"word/document3.xml", docxBody("Reversed order test"),
		), "Reversed order test"},
		{"pptx slide order", ".pptx", zipOf(
			"ppt/slides/slide10.xml", `<p:sld><a:t>Tenth</a:t></p:sld>`,
			"ppt/slides/slide2.xml", `<p:sld><a:t>Second</a:t></p:sld>`,
			"ppt/slides/slide1.xml", `<p:sld><a:t>First</a:t><a:t> </a:t></p:sld>`,
		), "First Second Tenth"},
		{"pptx without slides", ".pptx", zipOf("docProps/core.xml", "<x/>"), ""},
		{"odp", ".odp", zipOf("content.xml", `<office:document><text:h>Slide title</text:h><text:p>Body text</text:p></office:document>`), "Body text Slide title"},
		{"docx entities", ".docx", zipOf("word/document.xml", docxBody("Terms &amp; Conditions &lt;v2&gt; &quot;final&quot;")), `Terms & Conditions <v2> "final"`},
		{"pptx entities", ".pptx", zipOf("ppt/slides/slide1.xml", `<p:sld><a:t>R&amp;D &#8211; Q3</a:t></p:sld>`), "R&D – Q3"},
		{"odp entities", ".odp", zipOf("content.xml", `<office:document><text:p>A &lt; B &apos;ok&apos;</text:p></office:document>`), "A < B 'ok'"},
		{"ods", ".ods", zipOf("content.xml", `<table:table-cell><text:p>Cell A</text:p></table:table-cell><table:table-cell><text:span>Cell B</text:span></table:table-cell>`), "Cell A Cell B"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_errors(t *testing.T) {
	e := NewExtractor()
	cases := map[string][]byte{
		".docx": zipOf("other.xml", "<x/>"),
		".pptx": []byte("not a zip"),
		".odp":  zipOf("other.xml", "<x/>"),
		".ods":  []byte("not a zip"),
		".xlsx": []byte("not a workbook"),
		".pdf":  []byte("not a pdf"),
	}
	for ext, content := range cases {
		if _, err := e.ExtractBytes(content, ext); err == nil {
			t.Errorf("%s: expected error", ext)
		}
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Title")
	_ = f.SetCellValue("Sheet1", "A2", "Value 1")
	_ = f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.docx")
	if err := os.WriteFile(path, zipOf("word/document.xml", docxBody("From file")), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	got, err := e.ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if got != "From file" {
		t.Errorf("got %q", got)
	}

	if _, err := e.ExtractFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormats(t *testing.T) {
	formats := NewExtractor().Formats()
	want := map[string]bool{".pdf": true, ".docx": true, ".xlsx": true, ".txt": true}
	for _, f := range formats {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("missing formats: %v", want)
	}
}
