package fragmentstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/models"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/schema"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
	"gorm.io/gorm"
)

// GormStore is the MySQL-backed fragment store.
type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormStore creates a GormStore over an initialized GORM handle.
func NewGormStore(db *gorm.DB, log *logger.Logger) *GormStore {
	return &GormStore{db: db, log: log}
}

// AutoMigrate creates or updates the document and fragment tables.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Document{}, &models.Fragment{})
}

// Store persists one fragment batch inside a single transaction. The
// placeholder document is ensured outside the batch transaction so that a
// duplicate-key or permission failure there degrades to a null document
// reference instead of aborting the batch.
func (s *GormStore) Store(ctx context.Context, batch interfaces.Batch) (int, error) {
	if err := validateBatch(batch); err != nil {
		return 0, err
	}
	if len(batch.Fragments) == 0 {
		return 0, nil
	}

	docID := s.ensureDocument(ctx, batch)

	rows := make([]models.Fragment, 0, len(batch.Fragments))
	for _, frag := range batch.Fragments {
		embeddingJSON, err := json.Marshal(frag.Embedding)
		if err != nil {
			return 0, fmt.Errorf("cannot serialize embedding for fragment %d: %w", frag.Index, err)
		}
		metaJSON, err := json.Marshal(models.FragmentMetadata{
			Offset:   frag.Offset,
			Length:   len(frag.Text),
			Provider: batch.Provider,
		})
		if err != nil {
			return 0, fmt.Errorf("cannot serialize metadata for fragment %d: %w", frag.Index, err)
		}
		rows = append(rows, models.Fragment{
			ID:         frag.ID,
			DocumentID: docID,
			Filename:   batch.Filename,
			Index:      frag.Index,
			Offset:     frag.Offset,
			Text:       frag.Text,
			Embedding:  embeddingJSON,
			Metadata:   metaJSON,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if batch.Replace {
			if err := tx.Where("document_id = ?", batch.DocumentID).Delete(&models.Fragment{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("cannot store fragment batch: %w", err)
	}
	return len(rows), nil
}

// ensureDocument returns the document reference to store on the batch,
// creating a minimal placeholder when the id is unknown. A creation
// failure is logged and degrades to a null reference, never silently
// swallowed and never fatal for the batch.
func (s *GormStore) ensureDocument(ctx context.Context, batch interfaces.Batch) *string {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", batch.DocumentID).Error
	if err == nil {
		return &doc.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.WithError(err).Warn("document lookup failed, storing fragments without document reference")
		return nil
	}

	placeholder := models.Document{
		ID:       batch.DocumentID,
		Filename: batch.Filename,
		Provider: batch.Provider,
	}
	if err := s.db.WithContext(ctx).Create(&placeholder).Error; err != nil {
		s.log.WithError(err).WithPayload(map[string]interface{}{
			"document_id": batch.DocumentID,
		}).Warn("placeholder document creation failed, storing fragments without document reference")
		return nil
	}
	return &placeholder.ID
}

// Load returns every fragment of a document in document order. Fragments
// persisted with a null document reference (placeholder creation failed)
// are excluded; they remain in the table for manual recovery only.
func (s *GormStore) Load(ctx context.Context, documentID string) ([]schema.Fragment, error) {
	var rows []models.Fragment
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("idx asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cannot load fragments: %w", err)
	}

	frags := make([]schema.Fragment, 0, len(rows))
	for _, row := range rows {
		var vec []float32
		if err := json.Unmarshal(row.Embedding, &vec); err != nil {
			return nil, fmt.Errorf("corrupt embedding on fragment %s: %w", row.ID, err)
		}
		var meta models.FragmentMetadata
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("corrupt metadata on fragment %s: %w", row.ID, err)
			}
		}
		frag := schema.Fragment{
			ID:        row.ID,
			Index:     row.Index,
			Offset:    row.Offset,
			Text:      row.Text,
			Embedding: vec,
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName: row.Filename,
				schema.MetadataKeyOffset:   meta.Offset,
				schema.MetadataKeyLength:   meta.Length,
				schema.MetadataKeyProvider: meta.Provider,
			},
		}
		if row.DocumentID != nil {
			frag.DocumentID = *row.DocumentID
		}
		frags = append(frags, frag)
	}
	return frags, nil
}

// GetDocument fetches a document record by id.
func (s *GormStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &errs.NotFoundError{Resource: "document", ID: documentID}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot fetch document: %w", err)
	}
	return &doc, nil
}

// CountByDocument returns the number of stored fragments for a document.
func (s *GormStore) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Fragment{}).
		Where("document_id = ?", documentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("cannot count fragments: %w", err)
	}
	return count, nil
}

// DeleteByDocument removes every fragment of a document.
func (s *GormStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&models.Fragment{}).Error
}

var _ interfaces.FragmentStore = (*GormStore)(nil)
