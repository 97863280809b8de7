package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/embedding"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// IndexingPipeline orchestrates chunking, embedding and storing a
// document's text.
type IndexingPipeline struct {
	splitter interfaces.Splitter
	resolver *embedding.Resolver
	store    interfaces.FragmentStore
	index    interfaces.VectorIndex // optional ANN accelerator
	workers  int
	log      *logger.Logger
}

// NewIndexingPipeline creates an IndexingPipeline. index may be nil.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	resolver *embedding.Resolver,
	store interfaces.FragmentStore,
	index interfaces.VectorIndex,
	workers int,
	log *logger.Logger,
) *IndexingPipeline {
	if workers <= 0 {
		workers = 1
	}
	return &IndexingPipeline{
		splitter: splitter,
		resolver: resolver,
		store:    store,
		index:    index,
		workers:  workers,
		log:      log,
	}
}

// IndexRequest is one embedding-generation call.
type IndexRequest struct {
	Text       string
	DocumentID string // generated when empty
	Filename   string
	Provider   string // requested provider family; fallback applies
	Replace    bool   // clear prior fragment batches for the document
}

// IndexResult reports what was stored.
type IndexResult struct {
	ChunkCount int
	DocumentID string
	Provider   string
}

// Run executes the indexing pipeline. Embedding runs with bounded
// concurrency and any single failure aborts the batch before anything is
// persisted, so the store never holds a partial fragment set.
func (p *IndexingPipeline) Run(ctx context.Context, req IndexRequest) (*IndexResult, error) {
	if req.Text == "" {
		return nil, &errs.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if req.Filename == "" {
		return nil, &errs.ValidationError{Field: "filename", Reason: "must not be empty"}
	}
	if req.DocumentID == "" {
		req.DocumentID = uuid.New().String()
	}

	embedder, err := p.resolver.ModelForIndexing(req.Provider)
	if err != nil {
		return nil, err
	}

	frags, err := p.splitter.Split(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	p.log.WithPayload(map[string]interface{}{
		"document_id": req.DocumentID,
		"chunks":      len(frags),
		"provider":    embedder.Name(),
	}).Info("split document into fragments")

	if len(frags) == 0 {
		return &IndexResult{ChunkCount: 0, DocumentID: req.DocumentID, Provider: embedder.Name()}, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i := range frags {
		eg.Go(func() error {
			vec, err := embedder.Embed(egCtx, frags[i].Text)
			if err != nil {
				return err
			}
			frags[i].Embedding = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		p.log.WithError(err).Error("embedding failed, aborting batch")
		return nil, err
	}

	count, err := p.store.Store(ctx, interfaces.Batch{
		DocumentID: req.DocumentID,
		Filename:   req.Filename,
		Provider:   embedder.Name(),
		Replace:    req.Replace,
		Fragments:  frags,
	})
	if err != nil {
		return nil, err
	}

	if p.index != nil {
		// The relational store is the system of record; a stale ANN index
		// only degrades ranking until the next successful add.
		if err := p.index.Add(ctx, req.DocumentID, frags); err != nil {
			p.log.WithError(err).Warn(fmt.Sprintf("vector index add failed for document %s", req.DocumentID))
		}
	}

	return &IndexResult{ChunkCount: count, DocumentID: req.DocumentID, Provider: embedder.Name()}, nil
}
