package models

import (
	"fmt"
	"strings"
)

// IngestRequest is the body of an ingestion request.
type IngestRequest struct {
	DocumentID string `json:"document_id"`
}

// Validate rejects a missing document ID.
func (r *IngestRequest) Validate() error {
	r.DocumentID = strings.TrimSpace(r.DocumentID)
	if r.DocumentID == "" {
		return fmt.Errorf("document_id is required: %w", ErrInvalidInput)
	}
	return nil
}

// QueryRequest is a question, optionally scoped to one document.
type QueryRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Question   string `json:"question"`
}

// Validate trims fields and rejects an empty question.
func (q *QueryRequest) Validate() error {
	q.DocumentID = strings.TrimSpace(q.DocumentID)
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty: %w", ErrInvalidInput)
	}
	return nil
}
