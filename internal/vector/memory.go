package vector

import (
	"fmt"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search,
// grouped by document. Used for tests and offline runs.
type MemoryIndex struct {
	dimensions int
	mu         sync.RWMutex
	// docs preserves insertion order so ties rank deterministically.
	docs    []string
	entries map[string][]Candidate
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		entries:    make(map[string][]Candidate),
	}, nil
}

// Replace swaps the vectors stored for docID. All vectors must have the
// index dimension; on mismatch nothing changes.
func (m *MemoryIndex) Replace(docID string, candidates []Candidate) error {
	stored := make([]Candidate, len(candidates))
	for i, c := range candidates {
		if len(c.Vector) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(c.Vector), m.dimensions)
		}
		vec := make([]float64, m.dimensions)
		copy(vec, c.Vector)
		stored[i] = Candidate{ID: c.ID, Vector: vec}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[docID]; !ok {
		m.docs = append(m.docs, docID)
	}
	m.entries[docID] = stored
	return nil
}

// Search returns the k nearest vectors. A non-empty docID restricts the
// search to that document.
func (m *MemoryIndex) Search(query []float64, k int, docID string) ([]Match, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	var candidates []Candidate
	if docID != "" {
		candidates = m.entries[docID]
	} else {
		for _, id := range m.docs {
			candidates = append(candidates, m.entries[id]...)
		}
	}
	m.mu.RUnlock()
	return Nearest(query, candidates, k), nil
}

// RemoveDocument drops every vector stored for docID.
func (m *MemoryIndex) RemoveDocument(docID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[docID]; !ok {
		return
	}
	delete(m.entries, docID)
	for i, id := range m.docs {
		if id == docID {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			break
		}
	}
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.entries {
		n += len(c)
	}
	return n
}

// Dimensions returns the vector length the index accepts.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}
