// Package extract pulls plain text out of uploaded document bytes.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type extractFunc func(content []byte) (string, error)

// Extractor extracts plain text from document files.
type Extractor struct {
	formats map[string]extractFunc
}

// NewExtractor returns an Extractor for PDF, Office, OpenDocument and plain text files.
func NewExtractor() *Extractor {
	return &Extractor{formats: map[string]extractFunc{
		".pdf":  extractPDF,
		".docx": extractDOCX,
		".xlsx": extractXLSX,
		".pptx": extractPPTX,
		".odp":  extractODP,
		".ods":  extractODS,
		".txt":  extractPlain,
		".md":   extractPlain,
		".rst":  extractPlain,
		".csv":  extractPlain,
		".json": extractPlain,
		".html": extractPlain,
	}}
}

// Formats lists the extensions with a dedicated extractor.
func (e *Extractor) Formats() []string {
	out := make([]string, 0, len(e.formats))
	for ext := range e.formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ExtractFile reads the file at path and extracts its text.
func (e *Extractor) ExtractFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on the file extension,
// which may be given with or without the leading dot. Unknown extensions
// are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	fn, ok := e.formats[ext]
	if !ok {
		fn = extractPlain
	}
	return fn(content)
}
