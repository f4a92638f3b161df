package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/fileid"
	"github.com/hyperjump/docqa/internal/models"
)

// FileChanged imports the file at path as the document fileid.DocumentID(path)
// and ingests it. A file whose text is unchanged and already chunked is
// skipped; changed text replaces the previous document and its chunks.
func (idx *Indexer) FileChanged(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	text, err := idx.extractor.ExtractBytes(content, filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("extract %s: %w: %w", name, models.ErrInvalidInput, err)
	}
	text = Preprocess(text)
	if text == "" {
		return fmt.Errorf("%s has no text: %w", name, models.ErrInvalidInput)
	}

	id := fileid.DocumentID(path)
	existing, err := idx.store.GetDocument(ctx, id)
	switch {
	case err == nil && existing.Content == text:
		chunks, err := idx.store.GetChunksByDocumentID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: failed to load chunks: %w", models.ErrPersistence, err)
		}
		if len(chunks) > 0 {
			idx.logger.Debug("watched file unchanged", zap.String("path", path), zap.String("doc_id", id))
			return nil
		}
		// Stored text without chunks means an earlier ingest did not finish.
		_, err = idx.Ingest(ctx, id)
		return err
	case err == nil:
		if err := idx.store.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("%w: failed to replace document: %w", models.ErrPersistence, err)
		}
	case !errors.Is(err, models.ErrNotFound):
		return fmt.Errorf("%w: failed to load document: %w", models.ErrPersistence, err)
	}

	if _, err := idx.storeDocument(ctx, id, name, text); err != nil {
		return err
	}
	_, err = idx.Ingest(ctx, id)
	return err
}

// FileRemoved deletes the document imported from path, if any.
func (idx *Indexer) FileRemoved(ctx context.Context, path string) error {
	err := idx.DeleteDocument(ctx, fileid.DocumentID(path))
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}
