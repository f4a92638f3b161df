// Package cli provides CLI output and server client utilities for docqa.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// Status is the shape of GET /api/status.
type Status struct {
	Documents           int64    `json:"documents"`
	Chunks              int64    `json:"chunks"`
	EmbeddingProviders  []string `json:"embedding_providers"`
	SynthesisProviders  []string `json:"synthesis_providers"`
	EmbeddingDimensions int      `json:"embedding_dimensions,omitempty"`
	DiskUsageBytes      *int64   `json:"disk_usage_bytes,omitempty"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes a query answer and its sources.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	fmt.Fprintf(w, "\n%s\n\n", answer.Answer)
	if !answer.Synthesized {
		fmt.Fprintln(w, "(no language model answered; showing the best matching text)")
		fmt.Fprintln(w)
	}
	if len(answer.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w, "--- Sources ---")
	for _, src := range answer.Sources {
		fmt.Fprintf(w, "[snippet %d] chars %d-%d | score %.4f | %s\n",
			src.SnippetIndex, src.StartChar, src.EndChar, src.Score, src.ChunkID)
	}
	return nil
}

// WriteDocument writes one document. Text output shows the first 200 characters.
func WriteDocument(w io.Writer, doc *models.Document, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, doc)
	}
	fmt.Fprintf(w, "ID:      %s\n", doc.ID)
	fmt.Fprintf(w, "Title:   %s\n", doc.Title)
	fmt.Fprintf(w, "Created: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.Content != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(doc.Content, 200))
	}
	return nil
}

// WriteDocuments writes a page of documents.
func WriteDocuments(w io.Writer, docs []*models.Document, total int64, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.Document{}
		}
		return writeJSON(w, map[string]interface{}{"documents": docs, "total": total})
	}
	fmt.Fprintf(w, "%d of %d document(s)\n", len(docs), total)
	for _, doc := range docs {
		fmt.Fprintf(w, "%s  %s  %s\n", doc.ID, doc.CreatedAt.Format("2006-01-02 15:04"), doc.Title)
	}
	return nil
}

// WriteIngest writes the result of an ingestion run.
func WriteIngest(w io.Writer, result *models.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "Ingested %d chunk(s) for document %s\n", result.Ingested, result.DocumentID)
	return nil
}

// WriteStatus writes storage counts and the active provider chains.
func WriteStatus(w io.Writer, status *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "documents:            %d\n", status.Documents)
	fmt.Fprintf(w, "chunks:               %d\n", status.Chunks)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:     %d\n", *status.DiskUsageBytes)
	}
	if status.EmbeddingDimensions > 0 {
		fmt.Fprintf(w, "embedding_dims:       %d\n", status.EmbeddingDimensions)
	}
	fmt.Fprintf(w, "embedding_providers:  %s\n", providerList(status.EmbeddingProviders))
	fmt.Fprintf(w, "synthesis_providers:  %s\n", providerList(status.SynthesisProviders))
	return nil
}

// providerList renders a provider chain in fallback order.
func providerList(names []string) string {
	if len(names) == 0 {
		return "(none, mock fallback)"
	}
	return strings.Join(names, " -> ")
}
