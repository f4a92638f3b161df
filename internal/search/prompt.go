package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
)

const (
	// SystemPrompt is the fixed role given to every synthesizer.
	SystemPrompt = "You are a helpful assistant. Use the provided CONTEXT to answer the question. Always cite snippets."

	snippetSeparator = "\n\n---\n\n"
	fallbackExcerpt  = 250
	noSupportingText = "No supporting text."
)

// BuildContext labels each retrieved chunk with its 1-based snippet number
// in retrieval order.
func BuildContext(results []*models.RetrievalResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("SNIPPET %d:\n%s", i+1, r.Content)
	}
	return strings.Join(parts, snippetSeparator)
}

// UserPrompt wraps the context and question in the answer instructions.
func UserPrompt(context, question string) string {
	return fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s\n\nAnswer concisely and include 'SOURCES' line.", context, question)
}

// FallbackAnswer quotes the top chunk when no synthesizer answered.
func FallbackAnswer(results []*models.RetrievalResult) string {
	excerpt := noSupportingText
	if len(results) > 0 {
		excerpt = utils.Prefix(results[0].Content, fallbackExcerpt)
	}
	return fmt.Sprintf("Mock answer: \"%s\"\n\nSOURCES: snippet 1", excerpt)
}

// Sources cites each result with its snippet number.
func Sources(results []*models.RetrievalResult) []*models.Source {
	sources := make([]*models.Source, len(results))
	for i, r := range results {
		sources[i] = &models.Source{
			ChunkID:      r.ChunkID,
			SnippetIndex: i + 1,
			StartChar:    r.StartChar,
			EndChar:      r.EndChar,
			Score:        r.Score(),
		}
	}
	return sources
}
