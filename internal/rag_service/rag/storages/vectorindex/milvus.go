// Package vectorindex adapts Milvus as an optional ANN accelerator for
// fragment ranking. The in-process cosine path in the flat pipeline is the
// reference behavior; this index takes over candidate scoring when a
// Milvus address is configured.
package vectorindex

import (
	"fmt"

	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/database/milvus"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

const (
	FieldID         = "id"
	FieldDocumentID = "document_id"
	FieldIndex      = "idx"
	FieldEmbedding  = "embedding"
)

// MilvusIndex implements VectorIndex on a Milvus collection.
type MilvusIndex struct {
	log        *logger.Logger
	client     client.Client
	collection string
}

// NewMilvusIndex creates the index over the shared Milvus client wrapper.
func NewMilvusIndex(mc *milvus.MilvusClient, collection string, log *logger.Logger) (*MilvusIndex, error) {
	if mc == nil || mc.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusIndex{log: log, client: mc.Client, collection: collection}, nil
}

// Add inserts the batch's vectors keyed by fragment id and document id.
func (s *MilvusIndex) Add(ctx context.Context, documentID string, frags []schema.Fragment) error {
	if len(frags) == 0 {
		return nil
	}

	ids := make([]string, len(frags))
	docIDs := make([]string, len(frags))
	indexes := make([]int64, len(frags))
	vectors := make([][]float32, len(frags))
	for i, frag := range frags {
		ids[i] = frag.ID
		docIDs[i] = documentID
		indexes[i] = int64(frag.Index)
		vectors[i] = frag.Embedding
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	docCol := entity.NewColumnVarChar(FieldDocumentID, docIDs)
	idxCol := entity.NewColumnInt64(FieldIndex, indexes)
	vecCol := entity.NewColumnFloatVector(FieldEmbedding, len(vectors[0]), vectors)

	s.log.Info(fmt.Sprintf("inserting %d vectors into milvus collection %s", len(frags), s.collection))
	if _, err := s.client.Insert(ctx, s.collection, "", idCol, docCol, idxCol, vecCol); err != nil {
		return fmt.Errorf("cannot insert vectors into milvus: %w", err)
	}
	return nil
}

// Query searches the collection for the document's nearest fragments.
func (s *MilvusIndex) Query(ctx context.Context, documentID string, vector []float32, topK int) ([]schema.ScoredFragment, error) {
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return nil, fmt.Errorf("cannot load milvus collection %s: %w", s.collection, err)
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("cannot build milvus search params: %w", err)
	}
	filter := fmt.Sprintf(`%s == "%s"`, FieldDocumentID, documentID)

	results, err := s.client.Search(
		ctx, s.collection, []string{}, filter,
		[]string{FieldID, FieldIndex},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.IP, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	var scored []schema.ScoredFragment
	for _, res := range results {
		var idData []string
		var idxData []int64
		for _, field := range res.Fields {
			switch field.Name() {
			case FieldID:
				if col, ok := field.(*entity.ColumnVarChar); ok {
					idData = col.Data()
				}
			case FieldIndex:
				if col, ok := field.(*entity.ColumnInt64); ok {
					idxData = col.Data()
				}
			}
		}
		if idData == nil {
			s.log.Warn("milvus result is missing the id field, skipping")
			continue
		}
		for i := 0; i < res.ResultCount; i++ {
			frag := schema.Fragment{ID: idData[i], DocumentID: documentID}
			if idxData != nil {
				frag.Index = int(idxData[i])
			}
			scored = append(scored, schema.ScoredFragment{Fragment: frag, Score: res.Scores[i]})
		}
	}
	return scored, nil
}

var _ interfaces.VectorIndex = (*MilvusIndex)(nil)
