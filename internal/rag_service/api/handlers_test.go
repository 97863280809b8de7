package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/embedding"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/pipeline"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/splitters"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/fragmentstore"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/treecache"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/service"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires the full HTTP stack over in-memory storage, with no
// chat backend and no structural-indexing collaborator.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("api-test", "")
	cfg := &config.AppConfig{}
	cfg.Retrieval = config.RetrievalConfig{ChunkSize: 100, ChunkOverlap: 20, TopK: 5, EmbedWorkers: 2}

	store := fragmentstore.NewMemoryStore()
	resolver := embedding.NewResolver(cfg.Embedding, log)
	splitter := splitters.NewCharSplitter(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)

	qa := pipeline.NewQAPipeline(log)
	indexing := pipeline.NewIndexingPipeline(splitter, resolver, store, nil, cfg.Retrieval.EmbedWorkers, log)
	flat := pipeline.NewFlatPipeline(store, resolver, nil, log)
	tree := pipeline.NewTreePipeline(nil, treecache.NewMemoryCache(), nil, nil, qa, time.Minute, log)

	svc := service.NewRagService(cfg, indexing, flat, tree, qa, nil, nil, log)
	return SetupRouter(NewHandler(svc, log, false))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEmbeddingsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rag/embeddings", gin.H{
		"text":       "a reasonably long piece of document text to be chunked and embedded",
		"filename":   "doc.txt",
		"documentId": "doc-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.EmbeddingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, embedding.ProviderLocal, resp.Provider)
	assert.Greater(t, resp.ChunkCount, 0)
}

func TestEmbeddingsEndpoint_MissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rag/embeddings", gin.H{"text": "no filename"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEndpoint_RoundTrip(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rag/embeddings", gin.H{
		"text":       "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi",
		"filename":   "doc.txt",
		"documentId": "doc-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/rag/query", gin.H{
		"question":   "gamma delta",
		"documentId": "doc-1",
		"topK":       3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Fragments)
	// No chat backend is wired, so retrieval succeeds without an answer.
	assert.Empty(t, resp.Answer)
}

func TestQueryEndpoint_UnknownDocumentIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rag/query", gin.H{
		"question":   "anything",
		"documentId": "never-indexed",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTreeQueryEndpoint_NoLLMIs500(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rag/tree-query", gin.H{
		"question":   "anything",
		"documentId": "doc-1",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTreeStatusEndpoint_NoCollaboratorIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/rag/tree-status/doc-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
