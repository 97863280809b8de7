package interfaces

import (
	"context"
	"time"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/models"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/outline"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
)

// Splitter turns raw document text into ordered, overlapping fragments
// with stable offsets.
type Splitter interface {
	Split(ctx context.Context, text string) ([]schema.Fragment, error)
}

// EmbeddingModel produces a fixed-length vector for any text. Dimensions
// returns 0 when the provider's dimensionality is model-dependent and not
// known up front.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// Batch is one atomic fragment write: either every fragment is committed
// or none is. Replace clears prior fragment batches for the document in
// the same transaction.
type Batch struct {
	DocumentID string
	Filename   string
	Provider   string
	Replace    bool
	Fragments  []schema.Fragment
}

// FragmentStore persists fragments with their vectors, associated with a
// document. Store creates a minimal placeholder Document when the id does
// not reference an existing record.
type FragmentStore interface {
	Store(ctx context.Context, batch Batch) (int, error)
	Load(ctx context.Context, documentID string) ([]schema.Fragment, error)
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)
	CountByDocument(ctx context.Context, documentID string) (int64, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// VectorIndex is an optional ANN accelerator for fragment ranking. The
// in-process cosine path remains the reference behavior.
type VectorIndex interface {
	Add(ctx context.Context, documentID string, frags []schema.Fragment) error
	Query(ctx context.Context, documentID string, vector []float32, topK int) ([]schema.ScoredFragment, error)
}

// TreeProvider is the consumed interface of the structural-indexing
// collaborator.
type TreeProvider interface {
	GetTree(ctx context.Context, documentID string) (*outline.Node, error)
	Status(ctx context.Context, documentID string) (outline.Status, error)
}

// TreeCache fronts the TreeProvider so repeated readiness polls stay cheap
// and idempotent. Entries carry an explicit TTL; eviction is never silent
// unbounded growth.
type TreeCache interface {
	GetTree(ctx context.Context, documentID string) (*outline.Node, error)
	SetTree(ctx context.Context, documentID string, tree *outline.Node, ttl time.Duration) error
	GetStatus(ctx context.Context, documentID string) (outline.Status, error)
	SetStatus(ctx context.Context, documentID string, status outline.Status, ttl time.Duration) error
	Evict(ctx context.Context, documentID string) error
}

// PageSource supplies rendered page images for grounding. Implementations
// return (nil, nil) when no page content exists so callers can degrade to
// summaries instead of failing.
type PageSource interface {
	Pages(ctx context.Context, documentID string, start, end int) ([][]byte, error)
}

// LLM is a chat-completion backend used for tree reasoning and answer
// synthesis. GenerateVision grounds the prompt in page images; providers
// without vision support may ignore the images.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateVision(ctx context.Context, prompt string, images [][]byte) (string, error)
}
