package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
)

const (
	payloadDocumentID = "document_id"
	payloadText       = "text"
	payloadStartChar  = "start_char"
	payloadEndChar    = "end_char"
)

// QdrantOptions configures a QdrantChunkStore.
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions int
}

// QdrantChunkStore keeps chunk vectors in a Qdrant collection. Documents
// live elsewhere; combine with a DocumentStore through Compose.
type QdrantChunkStore struct {
	client     *qdrant.Client
	collection string
}

var _ ChunkStore = (*QdrantChunkStore)(nil)

// NewQdrantChunkStore connects and creates the collection with cosine
// distance when it does not exist.
func NewQdrantChunkStore(ctx context.Context, opts QdrantOptions) (*QdrantChunkStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	s := &QdrantChunkStore{client: client, collection: opts.Collection}

	exists, err := client.CollectionExists(ctx, opts.Collection)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: opts.Collection,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(opts.Dimensions),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("create collection: %w", err)
		}
	}
	return s, nil
}

func documentFilter(docID string) *qdrant.Filter {
	if docID == "" {
		return nil
	}
	return &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch(payloadDocumentID, docID)}}
}

// ReplaceChunks upserts the new points and then deletes the document's
// other points, so a failed upsert leaves the previous set searchable.
func (s *QdrantChunkStore) ReplaceChunks(ctx context.Context, docID string, chunks []*models.Chunk) ([]string, error) {
	now := time.Now().UTC()
	ids := make([]string, len(chunks))
	pointIDs := make([]*qdrant.PointId, len(chunks))
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		chunk.DocumentID = docID
		chunk.CreatedAt = now
		ids[i] = chunk.ID
		pointIDs[i] = qdrant.NewIDUUID(chunk.ID)
		points[i] = &qdrant.PointStruct{
			Id:      pointIDs[i],
			Vectors: qdrant.NewVectors(utils.Float32s(chunk.Embedding)...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadDocumentID: docID,
				payloadText:       chunk.Content,
				payloadStartChar:  chunk.StartChar,
				payloadEndChar:    chunk.EndChar,
			}),
		}
	}

	if len(points) > 0 {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert chunks: %w", err)
		}
	}

	stale := &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch(payloadDocumentID, docID)}}
	if len(pointIDs) > 0 {
		stale.MustNot = []*qdrant.Condition{qdrant.NewHasID(pointIDs...)}
	}
	if err := s.deleteWhere(ctx, stale); err != nil {
		return nil, fmt.Errorf("delete previous chunks: %w", err)
	}
	return ids, nil
}

func (s *QdrantChunkStore) deleteWhere(ctx context.Context, filter *qdrant.Filter) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	return err
}

// QueryNearest converts Qdrant cosine similarity scores to distances.
func (s *QdrantChunkStore) QueryNearest(ctx context.Context, vec []float64, k int, docID string) ([]*models.RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(utils.Float32s(vec)...),
		Filter:         documentFilter(docID),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	results := make([]*models.RetrievalResult, 0, len(resp))
	for _, p := range resp {
		chunk := chunkFromPayload(p.GetId(), p.GetPayload())
		results = append(results, &models.RetrievalResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Content:    chunk.Content,
			StartChar:  chunk.StartChar,
			EndChar:    chunk.EndChar,
			Distance:   1 - float64(p.GetScore()),
		})
	}
	return results, nil
}

const scrollPage = 256

// GetChunksByDocumentID scrolls the document's points and sorts them by start_char.
func (s *QdrantChunkStore) GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.Chunk, error) {
	var chunks []*models.Chunk
	var offset *qdrant.PointId
	for {
		// One extra point marks where the next page starts.
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         documentFilter(docID),
			Limit:          qdrant.PtrOf(uint32(scrollPage + 1)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, err
		}
		page := points
		if len(page) > scrollPage {
			page = page[:scrollPage]
		}
		for _, p := range page {
			chunks = append(chunks, chunkFromPayload(p.GetId(), p.GetPayload()))
		}
		if len(points) <= scrollPage {
			break
		}
		offset = points[scrollPage].GetId()
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].StartChar < chunks[j].StartChar })
	return chunks, nil
}

// DeleteChunksByDocumentID removes all points for a document.
func (s *QdrantChunkStore) DeleteChunksByDocumentID(ctx context.Context, docID string) error {
	return s.deleteWhere(ctx, documentFilter(docID))
}

// CountChunks returns the exact number of points in the collection.
func (s *QdrantChunkStore) CountChunks(ctx context.Context) (int64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	return int64(n), err
}

// Close closes the client connection.
func (s *QdrantChunkStore) Close() error {
	return s.client.Close()
}

func chunkFromPayload(id *qdrant.PointId, payload map[string]*qdrant.Value) *models.Chunk {
	return &models.Chunk{
		ID:         id.GetUuid(),
		DocumentID: payload[payloadDocumentID].GetStringValue(),
		Content:    payload[payloadText].GetStringValue(),
		StartChar:  int(payload[payloadStartChar].GetIntegerValue()),
		EndChar:    int(payload[payloadEndChar].GetIntegerValue()),
	}
}
