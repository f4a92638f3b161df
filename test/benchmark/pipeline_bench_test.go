package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/search"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/internal/vector"
)

func BenchmarkChunk(b *testing.B) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 4000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = indexer.Chunk(text, config.DefaultChunkSize)
	}
}

func BenchmarkNearest(b *testing.B) {
	candidates := make([]vector.Candidate, 1000)
	for i := range candidates {
		candidates[i] = vector.Candidate{
			ID:     fmt.Sprintf("c%d", i),
			Vector: embedding.MockVector(fmt.Sprintf("chunk %d", i), 384),
		}
	}
	query := embedding.MockVector("query", 384)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vector.Nearest(query, candidates, 10)
	}
}

func BenchmarkMockEmbed(b *testing.B) {
	chain := embedding.NewChain(384, nil)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = chain.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkIngestAndQuery(b *testing.B) {
	store, err := storage.NewMemoryStorage(64)
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	embedder := embedding.NewChain(64, nil)
	idx := indexer.NewIndexer(store, embedder, &config.IngestConfig{ChunkSize: 200})
	engine := search.NewEngine(store, embedder, llm.NewChain(config.DefaultMaxTokens, nil), &config.QueryConfig{TopK: 5})
	ctx := context.Background()

	doc, err := idx.CreateDocument(ctx, "bench", strings.Repeat("the quick brown fox jumps over the lazy dog. ", 500))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Ingest(ctx, doc.ID); err != nil {
			b.Fatal(err)
		}
		if _, err := engine.Query(ctx, &models.QueryRequest{Question: "fox"}); err != nil {
			b.Fatal(err)
		}
	}
}
