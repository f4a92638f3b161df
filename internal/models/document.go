// Package models defines core data structures for documents, chunks, and answers.
package models

import "time"

// Document is an uploaded source whose text is immutable once stored.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"text,omitempty" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chunk is a contiguous slice of a document's text. StartChar and EndChar are
// rune offsets into Document.Content, half-open.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Content    string    `json:"text" db:"content"`
	StartChar  int       `json:"start_char" db:"start_char"`
	EndChar    int       `json:"end_char" db:"end_char"`
	Embedding  []float64 `json:"-" db:"embedding"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Len returns the number of runes the chunk covers.
func (c *Chunk) Len() int {
	return c.EndChar - c.StartChar
}
