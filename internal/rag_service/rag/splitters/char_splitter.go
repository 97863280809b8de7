package splitters

import (
	"context"

	"github.com/google/uuid"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
)

// CharSplitter splits raw text into overlapping fixed-size fragments with
// stable byte offsets. Each fragment covers [offset, offset+chunkSize) and
// the window advances by chunkSize-overlap, so consecutive fragments share
// exactly overlap bytes except for the final, possibly shorter, one.
type CharSplitter struct {
	ChunkSize int
	Overlap   int
}

// NewCharSplitter creates a splitter. The overlap guard lives in Split so
// misconfiguration surfaces per request as a ValidationError.
func NewCharSplitter(chunkSize, overlap int) *CharSplitter {
	return &CharSplitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split produces the ordered fragment list for text. Empty input yields
// zero fragments; no produced fragment is ever empty.
func (s *CharSplitter) Split(_ context.Context, text string) ([]schema.Fragment, error) {
	if s.ChunkSize <= 0 {
		return nil, &errs.ValidationError{Field: "chunkSize", Reason: "must be positive"}
	}
	// Guard: a step of zero or less would loop forever.
	if s.ChunkSize <= s.Overlap {
		return nil, &errs.ValidationError{Field: "chunkSize", Reason: "must exceed overlap"}
	}
	if text == "" {
		return nil, nil
	}

	step := s.ChunkSize - s.Overlap
	var frags []schema.Fragment
	for offset, index := 0, 0; offset < len(text); offset, index = offset+step, index+1 {
		end := offset + s.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		frags = append(frags, schema.Fragment{
			ID:     uuid.New().String(),
			Index:  index,
			Offset: offset,
			Text:   text[offset:end],
			Metadata: map[string]interface{}{
				schema.MetadataKeyOffset: offset,
				schema.MetadataKeyLength: end - offset,
			},
		})
		if end == len(text) {
			break
		}
	}
	return frags, nil
}

var _ interfaces.Splitter = (*CharSplitter)(nil)
