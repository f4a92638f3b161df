package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/search"
	"github.com/hyperjump/docqa/internal/storage"
)

const testDims = 16

func newTestServer(t *testing.T, store storage.Storage, cfg *config.ServerConfig) http.Handler {
	t.Helper()
	if store == nil {
		mem, err := storage.NewMemoryStorage(testDims)
		require.NoError(t, err)
		store = mem
	}
	if cfg == nil {
		cfg = &config.ServerConfig{Host: "localhost", Port: 4000, MaxUploadBytes: 1 << 20}
	}
	embedder := embedding.NewChain(testDims, nil)
	synth := llm.NewChain(config.DefaultMaxTokens, nil)
	idx := indexer.NewIndexer(store, embedder, &config.IngestConfig{ChunkSize: 100})
	engine := search.NewEngine(store, embedder, synth, &config.QueryConfig{TopK: 3})
	srv := NewServer(engine, idx, store, cfg, zap.NewNop(),
		WithProviders(embedder.Names(), synth.Names()),
		WithDimensions(testDims),
	)
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, h http.Handler, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), w.Body.String())
}

func TestHandleRoot(t *testing.T) {
	h := newTestServer(t, nil, nil)

	w := doJSON(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Backend running - semantic hub", w.Body.String())

	w = doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var out map[string]string
	decode(t, w, &out)
	assert.Equal(t, "ok", out["status"])
}

func TestDocumentLifecycle(t *testing.T) {
	h := newTestServer(t, nil, nil)
	text := strings.Repeat("Refunds are issued within thirty days. ", 10)

	w := upload(t, h, "file", "policy.txt", []byte(text))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc models.Document
	decode(t, w, &doc)
	require.NotEmpty(t, doc.ID)
	assert.Equal(t, "policy.txt", doc.Title)

	w = doJSON(t, h, http.MethodPost, "/api/ingest", models.IngestRequest{DocumentID: doc.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ingest models.IngestResult
	decode(t, w, &ingest)
	assert.Equal(t, "ok", ingest.Status)
	assert.Equal(t, 4, ingest.Ingested)

	w = doJSON(t, h, http.MethodPost, "/api/query", models.QueryRequest{DocumentID: doc.ID, Question: "refund window?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var answer models.Answer
	decode(t, w, &answer)
	assert.True(t, strings.HasPrefix(answer.Answer, `Mock answer: "`))
	assert.Contains(t, answer.Answer, "SOURCES: snippet 1")
	assert.Len(t, answer.Sources, 3)
	assert.False(t, answer.Synthesized)

	w = doJSON(t, h, http.MethodGet, "/api/documents/"+doc.ID+"/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var chunks struct {
		DocumentID string          `json:"document_id"`
		Chunks     []*models.Chunk `json:"chunks"`
	}
	decode(t, w, &chunks)
	assert.Equal(t, doc.ID, chunks.DocumentID)
	require.Len(t, chunks.Chunks, 4)
	assert.Equal(t, 0, chunks.Chunks[0].StartChar)
	assert.Equal(t, 100, chunks.Chunks[0].EndChar)

	w = doJSON(t, h, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]interface{}
	decode(t, w, &status)
	assert.EqualValues(t, 1, status["documents"])
	assert.EqualValues(t, 4, status["chunks"])
	assert.EqualValues(t, testDims, status["embedding_dimensions"])

	w = doJSON(t, h, http.MethodDelete, "/api/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, h, http.MethodGet, "/api/documents/"+doc.ID+"/chunks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, h, http.MethodDelete, "/api/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpload_Errors(t *testing.T) {
	h := newTestServer(t, nil, nil)

	w := upload(t, h, "attachment", "a.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, h, "file", "blank.txt", []byte("  \n\t "))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpload_TooLarge(t *testing.T) {
	h := newTestServer(t, nil, &config.ServerConfig{MaxUploadBytes: 128})

	w := upload(t, h, "file", "big.txt", bytes.Repeat([]byte("a"), 4096))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
}

func TestHandleIngest_Errors(t *testing.T) {
	h := newTestServer(t, nil, nil)

	w := doJSON(t, h, http.MethodPost, "/api/ingest", models.IngestRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/ingest", models.IngestRequest{DocumentID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuery_Errors(t *testing.T) {
	h := newTestServer(t, nil, nil)

	w := doJSON(t, h, http.MethodPost, "/api/query", models.QueryRequest{Question: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/query", models.QueryRequest{DocumentID: "missing", Question: "why?"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/query", models.QueryRequest{Question: "anything?"})
	require.Equal(t, http.StatusOK, w.Code)
	var answer models.Answer
	decode(t, w, &answer)
	assert.Contains(t, answer.Answer, "No supporting text.")
	assert.Empty(t, answer.Sources)
}

func TestHandleListDocuments(t *testing.T) {
	h := newTestServer(t, nil, nil)
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		w := upload(t, h, "file", name, []byte("content of "+name))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, h, http.MethodGet, "/api/documents?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Documents []*models.Document `json:"documents"`
		Total     int64              `json:"total"`
	}
	decode(t, w, &out)
	assert.Len(t, out.Documents, 2)
	assert.EqualValues(t, 3, out.Total)

	w = doJSON(t, h, http.MethodGet, "/api/documents?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, h, http.MethodGet, "/api/documents?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type brokenCounts struct {
	storage.Storage
}

func (b brokenCounts) CountDocuments(context.Context) (int64, error) {
	return 0, errors.New("pq: connection refused to 10.0.0.5")
}

func TestHandleStatus_InternalErrorIsGeneric(t *testing.T) {
	mem, err := storage.NewMemoryStorage(testDims)
	require.NoError(t, err)
	h := newTestServer(t, brokenCounts{mem}, nil)

	w := doJSON(t, h, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, w.Body.String(), "internal server error")
}
