package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/docqa/internal/models"
)

func TestBuildContext(t *testing.T) {
	results := []*models.RetrievalResult{{Content: "first"}, {Content: "second"}}
	assert.Equal(t, "SNIPPET 1:\nfirst\n\n---\n\nSNIPPET 2:\nsecond", BuildContext(results))
	assert.Equal(t, "", BuildContext(nil))
}

func TestUserPrompt(t *testing.T) {
	got := UserPrompt("SNIPPET 1:\nx", "why?")
	assert.Equal(t, "CONTEXT:\nSNIPPET 1:\nx\n\nQUESTION: why?\n\nAnswer concisely and include 'SOURCES' line.", got)
}

func TestFallbackAnswer(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := FallbackAnswer([]*models.RetrievalResult{{Content: long}, {Content: "other"}})
	assert.Equal(t, "Mock answer: \""+strings.Repeat("é", 250)+"\"\n\nSOURCES: snippet 1", got)

	assert.Equal(t, "Mock answer: \"No supporting text.\"\n\nSOURCES: snippet 1", FallbackAnswer(nil))
}

func TestSources(t *testing.T) {
	results := []*models.RetrievalResult{
		{ChunkID: "a", StartChar: 0, EndChar: 4, Distance: 0.25},
		{ChunkID: "b", StartChar: 4, EndChar: 8, Distance: 1.5},
	}
	got := Sources(results)
	assert.Equal(t, []*models.Source{
		{ChunkID: "a", SnippetIndex: 1, StartChar: 0, EndChar: 4, Score: 0.75},
		{ChunkID: "b", SnippetIndex: 2, StartChar: 4, EndChar: 8, Score: -0.5},
	}, got)
}
