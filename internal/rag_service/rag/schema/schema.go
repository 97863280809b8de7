package schema

const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyProvider is the key for the embedding provider tag.
	MetadataKeyProvider = "provider"
	// MetadataKeyOffset is the key for the fragment's byte offset into the
	// source text.
	MetadataKeyOffset = "offset"
	// MetadataKeyLength is the key for the fragment's text length.
	MetadataKeyLength = "length"
	// MetadataKeyScore is the key for a query-time relevance score.
	MetadataKeyScore = "score"
)

// Fragment is the central data structure of the retrieval core: one
// bounded, overlapping slice of a document's text together with its vector
// and metadata. It is the primary carrier through both pipelines.
type Fragment struct {
	// ID is the unique identifier for this fragment.
	ID string

	// DocumentID links the fragment to its document. Empty only when
	// placeholder-document creation failed during storage.
	DocumentID string

	// Index is the 0-based position of the fragment in document order.
	Index int

	// Offset is the byte offset of the fragment's text in the source.
	Offset int

	// Text is the fragment's content.
	Text string

	// Embedding is the vector representation of Text. Fixed length per
	// provider; treated as an opaque numeric fingerprint.
	Embedding []float32

	// Metadata holds free-form data about the fragment (offset, length,
	// provider, query-time score).
	Metadata map[string]interface{}
}

// ScoredFragment pairs a fragment with its query-time relevance score.
// Ephemeral, never persisted.
type ScoredFragment struct {
	Fragment Fragment
	Score    float32
}
