package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/embedding"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/splitters"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/fragmentstore"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New("pipeline-test", "")
}

func localResolver() *embedding.Resolver {
	return embedding.NewResolver(config.EmbeddingConfig{}, testLogger())
}

func indexDocument(t *testing.T, store interfaces.FragmentStore, docID, text string) *IndexResult {
	t.Helper()
	p := NewIndexingPipeline(splitters.NewCharSplitter(100, 20), localResolver(), store, nil, 4, testLogger())
	res, err := p.Run(context.Background(), IndexRequest{
		Text:       text,
		DocumentID: docID,
		Filename:   "doc.txt",
		Provider:   embedding.ProviderLocal,
	})
	require.NoError(t, err)
	return res
}

func TestFlatRun_IdenticalTextRanksFirst(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	text := strings.Repeat("background filler content. ", 10) +
		"the treaty was signed in 1648 after long negotiations" +
		strings.Repeat(" more unrelated trailing material", 10)
	res := indexDocument(t, store, "doc-1", text)
	require.Greater(t, res.ChunkCount, 1)

	// The local embedder is deterministic, so querying with the exact
	// text of one fragment must rank that fragment first with score ~1.
	frags, err := store.Load(context.Background(), "doc-1")
	require.NoError(t, err)
	target := frags[1]

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	scored, err := flat.Run(context.Background(), target.Text, "doc-1", 3)
	require.NoError(t, err)
	require.NotEmpty(t, scored)
	assert.Equal(t, target.ID, scored[0].Fragment.ID)
	assert.InDelta(t, 1.0, float64(scored[0].Score), 1e-5)
}

func TestFlatRun_ScoresDescending(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	indexDocument(t, store, "doc-1", strings.Repeat("alpha beta gamma delta epsilon ", 30))

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	scored, err := flat.Run(context.Background(), "alpha beta", "doc-1", 10)
	require.NoError(t, err)
	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].Score, scored[i].Score)
	}
}

func TestFlatRun_KLargerThanCorpusReturnsAll(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	res := indexDocument(t, store, "doc-1", strings.Repeat("z", 250))

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	scored, err := flat.Run(context.Background(), "anything", "doc-1", 100)
	require.NoError(t, err)
	assert.Len(t, scored, res.ChunkCount)
}

func TestFlatRun_DefaultTopK(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	indexDocument(t, store, "doc-1", strings.Repeat("word soup for many chunks ", 50))

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	scored, err := flat.Run(context.Background(), "soup", "doc-1", 0)
	require.NoError(t, err)
	assert.Len(t, scored, DefaultTopK)
}

func TestFlatRun_UnknownDocument(t *testing.T) {
	flat := NewFlatPipeline(fragmentstore.NewMemoryStore(), localResolver(), nil, testLogger())

	_, err := flat.Run(context.Background(), "question", "never-indexed", 5)
	var nfErr *errs.NotFoundError
	require.True(t, errors.As(err, &nfErr), "want NotFoundError, got %v", err)
}

func TestFlatRun_DocumentWithoutFragments(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	indexDocument(t, store, "doc-1", "some short document")
	require.NoError(t, store.DeleteByDocument(context.Background(), "doc-1"))

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	_, err := flat.Run(context.Background(), "question", "doc-1", 5)
	var nfErr *errs.NotFoundError
	require.True(t, errors.As(err, &nfErr))
	assert.Equal(t, "indexed fragments", nfErr.Resource)
}

func TestFlatRun_EqualScoresTieBreakOnIndex(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	vec := make([]float32, embedding.LocalDimensions)
	vec[0] = 1
	// Identical embeddings stored out of order must come back ordered by
	// fragment index.
	batch := interfaces.Batch{
		DocumentID: "doc-1",
		Filename:   "doc.txt",
		Provider:   embedding.ProviderLocal,
		Fragments: []schema.Fragment{
			{ID: "f2", Index: 2, Text: "c", Embedding: vec},
			{ID: "f0", Index: 0, Text: "a", Embedding: vec},
			{ID: "f1", Index: 1, Text: "b", Embedding: vec},
		},
	}
	_, err := store.Store(context.Background(), batch)
	require.NoError(t, err)

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	scored, err := flat.Run(context.Background(), "query", "doc-1", 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, []string{"f0", "f1", "f2"},
		[]string{scored[0].Fragment.ID, scored[1].Fragment.ID, scored[2].Fragment.ID})
}

func TestFlatRun_ProviderMismatchRejected(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	indexDocument(t, store, "doc-1", "some document text")

	flat := NewFlatPipeline(store, localResolver(), nil, testLogger())
	_, err := flat.RunWithProvider(context.Background(), "question", "doc-1", embedding.ProviderGemini, 5)
	var valErr *errs.ValidationError
	require.True(t, errors.As(err, &valErr), "want ValidationError, got %v", err)

	// The stored tag itself is accepted.
	_, err = flat.RunWithProvider(context.Background(), "question", "doc-1", embedding.ProviderLocal, 5)
	require.NoError(t, err)
}

func TestFlatRun_EmptyInputs(t *testing.T) {
	flat := NewFlatPipeline(fragmentstore.NewMemoryStore(), localResolver(), nil, testLogger())

	var valErr *errs.ValidationError
	_, err := flat.Run(context.Background(), "", "doc-1", 5)
	require.True(t, errors.As(err, &valErr))

	_, err = flat.Run(context.Background(), "question", "", 5)
	require.True(t, errors.As(err, &valErr))
}

func TestIndexingRun_Validation(t *testing.T) {
	p := NewIndexingPipeline(splitters.NewCharSplitter(100, 20), localResolver(), fragmentstore.NewMemoryStore(), nil, 4, testLogger())

	var valErr *errs.ValidationError
	_, err := p.Run(context.Background(), IndexRequest{Filename: "f.txt"})
	require.True(t, errors.As(err, &valErr))

	_, err = p.Run(context.Background(), IndexRequest{Text: "hello"})
	require.True(t, errors.As(err, &valErr))
}

func TestIndexingRun_GeneratesDocumentID(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	p := NewIndexingPipeline(splitters.NewCharSplitter(100, 20), localResolver(), store, nil, 4, testLogger())

	res, err := p.Run(context.Background(), IndexRequest{Text: "hello world", Filename: "f.txt"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.DocumentID)
	assert.Equal(t, embedding.ProviderLocal, res.Provider)
	assert.Equal(t, 1, res.ChunkCount)
}

func TestIndexingRun_FallbackProviderTagStored(t *testing.T) {
	store := fragmentstore.NewMemoryStore()
	p := NewIndexingPipeline(splitters.NewCharSplitter(100, 20), localResolver(), store, nil, 4, testLogger())

	// openai is requested but no credential is configured; the stored tag
	// must name the provider that actually produced the vectors.
	res, err := p.Run(context.Background(), IndexRequest{
		Text:       "hello world",
		DocumentID: "doc-1",
		Filename:   "f.txt",
		Provider:   embedding.ProviderOpenAI,
	})
	require.NoError(t, err)
	assert.Equal(t, embedding.ProviderLocal, res.Provider)

	doc, err := store.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, embedding.ProviderLocal, doc.Provider)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, float64(cosine([]float32{1, 0}, []float32{2, 0})), 1e-6)
	assert.InDelta(t, 0.0, float64(cosine([]float32{1, 0}, []float32{0, 1})), 1e-6)
	assert.InDelta(t, -1.0, float64(cosine([]float32{1, 0}, []float32{-1, 0})), 1e-6)
	assert.Zero(t, cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosine(nil, nil))
}
