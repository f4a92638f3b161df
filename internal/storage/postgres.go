package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
)

// PostgresStorage implements Storage on PostgreSQL with the pgvector
// extension. Ranking uses the <=> cosine distance operator.
type PostgresStorage struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresStorage connects to databaseURL and creates the schema for
// vectors of the given dimension.
func NewPostgresStorage(ctx context.Context, databaseURL string, dimensions int) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	s := &PostgresStorage{pool: pool, dimensions: dimensions}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		start_char INTEGER NOT NULL,
		end_char INTEGER NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_start ON document_chunks(document_id, start_char);
	`, s.dimensions)
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// CreateDocument inserts a document.
func (s *PostgresStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, content, created_at) VALUES ($1, $2, $3, $4)`,
		doc.ID, doc.Title, doc.Content, doc.CreatedAt,
	)
	return err
}

// GetDocument returns a document by ID.
func (s *PostgresStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, content, created_at FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Content, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document; chunks cascade.
func (s *PostgresStorage) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// ListDocuments returns documents with offset and limit.
func (s *PostgresStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, created_at FROM documents
		 ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// ReplaceChunks swaps the document's chunks inside one transaction, sending
// the inserts as a single batch.
func (s *PostgresStorage) ReplaceChunks(ctx context.Context, docID string, chunks []*models.Chunk) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID); err != nil {
		return nil, fmt.Errorf("delete previous chunks: %w", err)
	}

	now := time.Now().UTC()
	ids := make([]string, len(chunks))
	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		chunk.DocumentID = docID
		chunk.CreatedAt = now
		batch.Queue(
			`INSERT INTO document_chunks (id, document_id, content, start_char, end_char, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			chunk.ID, docID, chunk.Content, chunk.StartChar, chunk.EndChar,
			pgvector.NewVector(utils.Float32s(chunk.Embedding)), chunk.CreatedAt,
		)
		ids[i] = chunk.ID
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert chunks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// QueryNearest orders chunks by pgvector cosine distance.
func (s *PostgresStorage) QueryNearest(ctx context.Context, vec []float64, k int, docID string) ([]*models.RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}
	query := pgvector.NewVector(utils.Float32s(vec))
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, content, start_char, end_char, embedding <=> $1 AS distance
		 FROM document_chunks
		 WHERE $2 = '' OR document_id = $2
		 ORDER BY distance, document_id, start_char
		 LIMIT $3`,
		query, docID, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.RetrievalResult
	for rows.Next() {
		var r models.RetrievalResult
		var distance *float64
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Content, &r.StartChar, &r.EndChar, &distance); err != nil {
			return nil, err
		}
		// pgvector returns NaN when either side has zero norm.
		r.Distance = 1
		if distance != nil && !math.IsNaN(*distance) {
			r.Distance = *distance
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// GetChunksByDocumentID returns all chunks for a document ordered by start_char.
func (s *PostgresStorage) GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, content, start_char, end_char, created_at
		 FROM document_chunks WHERE document_id = $1 ORDER BY start_char`,
		docID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.StartChar, &chunk.EndChar, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// DeleteChunksByDocumentID removes all chunks for a document.
func (s *PostgresStorage) DeleteChunksByDocumentID(ctx context.Context, docID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID)
	return err
}

// CountDocuments returns the total number of documents.
func (s *PostgresStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *PostgresStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	return count, err
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
