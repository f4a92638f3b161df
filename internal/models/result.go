package models

// RetrievalResult is one nearest-neighbour hit. Distance is cosine distance.
type RetrievalResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"text"`
	StartChar  int     `json:"start_char"`
	EndChar    int     `json:"end_char"`
	Distance   float64 `json:"distance"`
}

// Score is the similarity shown to callers.
func (r *RetrievalResult) Score() float64 {
	return 1 - r.Distance
}

// Source cites one retrieved chunk in an answer. SnippetIndex is 1-based and
// matches the SNIPPET label given to the model.
type Source struct {
	ChunkID      string  `json:"id"`
	SnippetIndex int     `json:"snippet_index"`
	StartChar    int     `json:"start_char"`
	EndChar      int     `json:"end_char"`
	Score        float64 `json:"score"`
}

// Answer is the result of a query.
type Answer struct {
	Answer  string    `json:"answer"`
	Sources []*Source `json:"sources"`
	// Synthesized is false when no language model answered and the
	// extractive fallback was used.
	Synthesized bool `json:"synthesized"`
}

// IngestResult reports how many chunks an ingestion run persisted.
type IngestResult struct {
	Status     string `json:"status"`
	DocumentID string `json:"document_id"`
	Ingested   int    `json:"ingested"`
}
