package fragmentstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/models"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
)

// MemoryStore is a thread-safe in-memory fragment store. It backs tests
// and the zero-config mode with the exact storage contract of GormStore.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]*models.Document
	fragments map[string][]schema.Fragment
	orphans   []schema.Fragment

	// FailDocumentCreate simulates placeholder-creation failure so the
	// null-reference fallback path stays testable.
	FailDocumentCreate bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]*models.Document),
		fragments: make(map[string][]schema.Fragment),
	}
}

// Store persists one batch. Validation happens before any mutation so a
// failing fragment leaves the store untouched.
func (s *MemoryStore) Store(_ context.Context, batch interfaces.Batch) (int, error) {
	if err := validateBatch(batch); err != nil {
		return 0, err
	}
	if len(batch.Fragments) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docRef := batch.DocumentID
	if _, ok := s.docs[batch.DocumentID]; !ok {
		if s.FailDocumentCreate {
			docRef = ""
		} else {
			s.docs[batch.DocumentID] = &models.Document{
				ID:        batch.DocumentID,
				Filename:  batch.Filename,
				Provider:  batch.Provider,
				CreatedAt: time.Now(),
			}
		}
	}

	if batch.Replace {
		delete(s.fragments, batch.DocumentID)
	}
	stored := make([]schema.Fragment, len(batch.Fragments))
	copy(stored, batch.Fragments)
	for i := range stored {
		stored[i].DocumentID = docRef
		if stored[i].Metadata == nil {
			stored[i].Metadata = make(map[string]interface{})
		}
		stored[i].Metadata[schema.MetadataKeyProvider] = batch.Provider
		stored[i].Metadata[schema.MetadataKeyFileName] = batch.Filename
	}
	if docRef == "" {
		// Same visibility as the null document_id rows in the GORM store:
		// persisted for manual recovery, not reachable through Load.
		s.orphans = append(s.orphans, stored...)
		return len(stored), nil
	}
	s.fragments[batch.DocumentID] = append(s.fragments[batch.DocumentID], stored...)
	return len(stored), nil
}

// Orphans returns the fragments persisted without a document reference,
// the in-memory analog of rows with a null document_id column.
func (s *MemoryStore) Orphans() []schema.Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.Fragment, len(s.orphans))
	copy(out, s.orphans)
	return out
}

// Load returns every fragment of a document in document order.
func (s *MemoryStore) Load(_ context.Context, documentID string) ([]schema.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frags := s.fragments[documentID]
	out := make([]schema.Fragment, len(frags))
	copy(out, frags)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// GetDocument fetches a document record by id.
func (s *MemoryStore) GetDocument(_ context.Context, documentID string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[documentID]
	if !ok {
		return nil, &errs.NotFoundError{Resource: "document", ID: documentID}
	}
	copied := *doc
	return &copied, nil
}

// CountByDocument returns the number of stored fragments for a document.
func (s *MemoryStore) CountByDocument(_ context.Context, documentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.fragments[documentID])), nil
}

// DeleteByDocument removes every fragment of a document.
func (s *MemoryStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fragments, documentID)
	return nil
}

var _ interfaces.FragmentStore = (*MemoryStore)(nil)
