package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	pptxSlidePrefix    = "ppt/slides/slide"
	openDocContentPath = "content.xml"
)

var (
	atTag    = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	odfTextP = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfSpan  = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfTextH = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
)

// extractPPTX reads the <a:t> runs of every slide in slide order.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip("PPTX", content)
	if err != nil {
		return "", err
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, pptxSlidePrefix), ".xml"))
		slides = append(slides, slide{n: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var b strings.Builder
	for _, s := range slides {
		data, err := readZipEntry(zr, s.name)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		appendMatches(&b, string(data), atTag)
	}
	return b.String(), nil
}

func extractOpenDocument(format string, content []byte, patterns ...*regexp.Regexp) (string, error) {
	zr, err := openZip(format, content)
	if err != nil {
		return "", err
	}
	data, err := readZipEntry(zr, openDocContentPath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	if data == nil {
		return "", fmt.Errorf("extract %s: %s not found", format, openDocContentPath)
	}
	var b strings.Builder
	appendMatches(&b, string(data), patterns...)
	return b.String(), nil
}

func extractODP(content []byte) (string, error) {
	return extractOpenDocument("ODP", content, odfTextP, odfSpan, odfTextH)
}

func extractODS(content []byte) (string, error) {
	return extractOpenDocument("ODS", content, odfTextP, odfSpan)
}

// extractXLSX renders each sheet as tab separated rows.
func extractXLSX(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
