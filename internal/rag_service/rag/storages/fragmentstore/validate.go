// Package fragmentstore persists fragment batches with their vectors. Both
// implementations enforce the same contract: a batch commits atomically or
// not at all, vector lengths are validated on write, and an unknown
// document id gets a minimal placeholder Document (falling back to a null
// document reference if even that fails).
package fragmentstore

import (
	"fmt"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/embedding"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
)

// validateBatch enforces the schema invariant: exactly N floats for
// provider P, N taken from the provider family or, when the family's
// dimensionality is model-dependent, from the first vector of the batch.
func validateBatch(batch interfaces.Batch) error {
	if batch.DocumentID == "" {
		return &errs.ValidationError{Field: "documentId", Reason: "must not be empty"}
	}
	if len(batch.Fragments) == 0 {
		return nil
	}

	expected := embedding.DimensionsFor(batch.Provider)
	if expected == 0 {
		expected = len(batch.Fragments[0].Embedding)
	}
	for _, frag := range batch.Fragments {
		if len(frag.Embedding) != expected {
			return &errs.ValidationError{
				Field: "embedding",
				Reason: fmt.Sprintf("fragment %d has %d floats, provider %q requires %d",
					frag.Index, len(frag.Embedding), batch.Provider, expected),
			}
		}
	}
	return nil
}
