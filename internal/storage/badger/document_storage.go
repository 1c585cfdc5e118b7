package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) SaveDocument(doc *models.KnowledgeDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.CompanyID == "" {
		return fmt.Errorf("company ID is required")
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Debug().
		Str("document_id", doc.ID).
		Str("company_id", doc.CompanyID).
		Str("filename", doc.Filename).
		Msg("Document metadata saved")

	return nil
}

func (s *DocumentStorage) GetDocument(id string) (*models.KnowledgeDocument, error) {
	var doc models.KnowledgeDocument
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("document not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// HasDocument reports whether a record with the id exists.
func (s *DocumentStorage) HasDocument(id string) (bool, error) {
	var doc models.KnowledgeDocument
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return true, nil
}

// FindByContentHash returns the document with the given content hash for
// a company, or nil when no such document exists.
func (s *DocumentStorage) FindByContentHash(companyID, contentHash string) (*models.KnowledgeDocument, error) {
	var docs []models.KnowledgeDocument
	err := s.db.Store().Find(&docs, badgerhold.Where("CompanyID").Eq(companyID).And("ContentHash").Eq(contentHash))
	if err != nil {
		return nil, fmt.Errorf("failed to find document by content hash: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func (s *DocumentStorage) ListDocuments(companyID string) ([]*models.KnowledgeDocument, error) {
	var docs []models.KnowledgeDocument
	err := s.db.Store().Find(&docs, badgerhold.Where("CompanyID").Eq(companyID))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	result := make([]*models.KnowledgeDocument, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage) DeleteDocument(id string) error {
	if err := s.db.Store().Delete(id, &models.KnowledgeDocument{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) CountDocuments(companyID string) (int, error) {
	count, err := s.db.Store().Count(&models.KnowledgeDocument{}, badgerhold.Where("CompanyID").Eq(companyID))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}

func (s *DocumentStorage) Tenants() ([]string, error) {
	var docs []models.KnowledgeDocument
	if err := s.db.Store().Find(&docs, nil); err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}

	seen := make(map[string]bool)
	tenants := make([]string, 0)
	for i := range docs {
		if !seen[docs[i].CompanyID] {
			seen[docs[i].CompanyID] = true
			tenants = append(tenants, docs[i].CompanyID)
		}
	}

	sort.Strings(tenants)
	return tenants, nil
}
