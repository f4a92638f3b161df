package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/vector"
)

// MemoryStorage implements Storage in process memory. Nothing survives a
// restart; used for tests and the "memory" driver.
type MemoryStorage struct {
	mu     sync.RWMutex
	docs   map[string]*models.Document
	chunks map[string][]*models.Chunk
	index  *vector.MemoryIndex
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty store for vectors of the given dimension.
func NewMemoryStorage(dimensions int) (*MemoryStorage, error) {
	index, err := vector.NewMemoryIndex(dimensions)
	if err != nil {
		return nil, err
	}
	return &MemoryStorage{
		docs:   make(map[string]*models.Document),
		chunks: make(map[string][]*models.Chunk),
		index:  index,
	}, nil
}

// CreateDocument stores a copy of doc.
func (m *MemoryStorage) CreateDocument(_ context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	stored := *doc
	m.docs[doc.ID] = &stored
	return nil
}

// GetDocument returns a copy of the stored document.
func (m *MemoryStorage) GetDocument(_ context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *doc
	return &out, nil
}

// ListDocuments returns documents newest first without their text.
func (m *MemoryStorage) ListDocuments(_ context.Context, offset, limit int) ([]*models.Document, error) {
	m.mu.RLock()
	docs := make([]*models.Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, &models.Document{ID: d.ID, Title: d.Title, CreatedAt: d.CreatedAt})
	}
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit >= 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (m *MemoryStorage) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return notFound(id)
	}
	delete(m.docs, id)
	delete(m.chunks, id)
	m.index.RemoveDocument(id)
	return nil
}

// CountDocuments returns the number of stored documents.
func (m *MemoryStorage) CountDocuments(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.docs)), nil
}

// ReplaceChunks swaps the document's chunk set. A vector of the wrong
// dimension fails the whole call and keeps the previous set.
func (m *MemoryStorage) ReplaceChunks(_ context.Context, docID string, chunks []*models.Chunk) ([]string, error) {
	now := time.Now().UTC()
	stored := make([]*models.Chunk, len(chunks))
	candidates := make([]vector.Candidate, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.NewString()
		}
		c := *chunk
		c.ID = id
		c.DocumentID = docID
		c.CreatedAt = now
		c.Embedding = nil
		stored[i] = &c
		candidates[i] = vector.Candidate{ID: id, Vector: chunk.Embedding}
		ids[i] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.index.Replace(docID, candidates); err != nil {
		return nil, err
	}
	for i, chunk := range chunks {
		chunk.ID = ids[i]
		chunk.DocumentID = docID
		chunk.CreatedAt = now
	}
	m.chunks[docID] = stored
	return ids, nil
}

// QueryNearest ranks stored vectors by cosine distance.
func (m *MemoryStorage) QueryNearest(_ context.Context, vec []float64, k int, docID string) ([]*models.RetrievalResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches, err := m.index.Search(vec, k, docID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Chunk)
	for _, list := range m.chunks {
		for _, c := range list {
			byID[c.ID] = c
		}
	}
	results := make([]*models.RetrievalResult, 0, len(matches))
	for _, match := range matches {
		c, ok := byID[match.ID]
		if !ok {
			continue
		}
		results = append(results, &models.RetrievalResult{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Content:    c.Content,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			Distance:   match.Distance,
		})
	}
	return results, nil
}

// GetChunksByDocumentID returns copies of the document's chunks by start_char.
func (m *MemoryStorage) GetChunksByDocumentID(_ context.Context, docID string) ([]*models.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.chunks[docID]
	out := make([]*models.Chunk, len(list))
	for i, c := range list {
		cp := *c
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartChar < out[j].StartChar })
	return out, nil
}

// DeleteChunksByDocumentID removes all chunks for a document.
func (m *MemoryStorage) DeleteChunksByDocumentID(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, docID)
	m.index.RemoveDocument(docID)
	return nil
}

// CountChunks returns the number of stored chunks.
func (m *MemoryStorage) CountChunks(_ context.Context) (int64, error) {
	return int64(m.index.Size()), nil
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
