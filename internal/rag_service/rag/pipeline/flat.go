package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/embedding"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// DefaultTopK is the number of fragments returned when the caller does not
// ask for a specific k.
const DefaultTopK = 5

// FlatPipeline ranks a document's stored fragments against a question by
// vector similarity.
type FlatPipeline struct {
	store    interfaces.FragmentStore
	resolver *embedding.Resolver
	index    interfaces.VectorIndex // optional ANN accelerator
	log      *logger.Logger
}

// NewFlatPipeline creates a FlatPipeline. index may be nil.
func NewFlatPipeline(store interfaces.FragmentStore, resolver *embedding.Resolver, index interfaces.VectorIndex, log *logger.Logger) *FlatPipeline {
	return &FlatPipeline{store: store, resolver: resolver, index: index, log: log}
}

// Run embeds the question with the document's stored provider family and
// returns the top k fragments by descending similarity, ties broken by
// ascending fragment index. Fewer than k stored fragments is not an error;
// zero stored fragments is reported as "not indexed" rather than an empty
// match.
func (p *FlatPipeline) Run(ctx context.Context, question, documentID string, k int) ([]schema.ScoredFragment, error) {
	return p.RunWithProvider(ctx, question, documentID, "", k)
}

// RunWithProvider additionally checks an explicitly requested provider tag
// against the document's stored one. Mixing families between indexing and
// querying silently degrades ranking, so a mismatch is rejected instead of
// re-embedding the corpus.
func (p *FlatPipeline) RunWithProvider(ctx context.Context, question, documentID, provider string, k int) ([]schema.ScoredFragment, error) {
	if question == "" {
		return nil, &errs.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if documentID == "" {
		return nil, &errs.ValidationError{Field: "documentId", Reason: "must not be empty"}
	}
	if k <= 0 {
		k = DefaultTopK
	}

	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if provider != "" && provider != doc.Provider {
		return nil, &errs.ValidationError{
			Field:  "provider",
			Reason: fmt.Sprintf("document was indexed with %q, not %q", doc.Provider, provider),
		}
	}

	frags, err := p.store.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(frags) == 0 {
		return nil, &errs.NotFoundError{Resource: "indexed fragments", ID: documentID}
	}

	// The stored tag is authoritative: embedding the question with a
	// different provider family would silently degrade ranking.
	model, err := p.resolver.ModelFor(doc.Provider)
	if err != nil {
		return nil, err
	}
	queryVec, err := model.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	if p.index != nil {
		if scored, err := p.queryIndex(ctx, documentID, queryVec, k, frags); err == nil {
			return scored, nil
		} else {
			p.log.WithError(err).Warn("vector index query failed, scoring in-process")
		}
	}

	scored := make([]schema.ScoredFragment, 0, len(frags))
	for _, frag := range frags {
		scored = append(scored, schema.ScoredFragment{
			Fragment: frag,
			Score:    cosine(queryVec, frag.Embedding),
		})
	}
	sortScored(scored)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// queryIndex delegates candidate scoring to the ANN index and rehydrates
// the results from the loaded fragments.
func (p *FlatPipeline) queryIndex(ctx context.Context, documentID string, vec []float32, k int, frags []schema.Fragment) ([]schema.ScoredFragment, error) {
	candidates, err := p.index.Query(ctx, documentID, vec, k)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]schema.Fragment, len(frags))
	for _, frag := range frags {
		byID[frag.ID] = frag
	}
	scored := make([]schema.ScoredFragment, 0, len(candidates))
	for _, cand := range candidates {
		if full, ok := byID[cand.Fragment.ID]; ok {
			scored = append(scored, schema.ScoredFragment{Fragment: full, Score: cand.Score})
		}
	}
	sortScored(scored)
	return scored, nil
}

// sortScored orders by descending score with deterministic tie-breaking on
// ascending fragment index.
func sortScored(scored []schema.ScoredFragment) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Fragment.Index < scored[j].Fragment.Index
		}
		return scored[i].Score > scored[j].Score
	})
}

// cosine computes cosine similarity; with pre-normalized vectors it equals
// the dot product. Mismatched or zero-length vectors score zero.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
