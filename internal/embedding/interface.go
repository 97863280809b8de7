package embedding

import "context"

// Embedding is the capability interface every embedding backend
// implements. Vectors are opaque numeric fingerprints of fixed,
// provider-specific length.
type Embedding interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for a batch of texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length, or 0 when it depends on
	// the configured model and is not known up front.
	Dimensions() int

	// Name returns the provider tag stored alongside each document so
	// queries embed with the same provider family as the stored batch.
	Name() string
}

// Provider tags. The tag travels with the document and every fragment;
// mixing provider families between indexing and querying silently degrades
// ranking, so the stored tag is authoritative at query time.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// DimensionsFor returns the fixed vector length of a provider family, or 0
// when it is model-dependent.
func DimensionsFor(provider string) int {
	switch provider {
	case ProviderOpenAI, ProviderLocal:
		return 1536
	case ProviderGemini:
		return 768
	default:
		return 0
	}
}
