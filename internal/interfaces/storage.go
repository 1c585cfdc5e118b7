package interfaces

import "github.com/luminahr/knowledge/internal/models"

// DocumentStorage persists KnowledgeDocument metadata records.
type DocumentStorage interface {
	SaveDocument(doc *models.KnowledgeDocument) error
	GetDocument(id string) (*models.KnowledgeDocument, error)

	// HasDocument reports whether a record with the id exists.
	HasDocument(id string) (bool, error)

	// FindByContentHash returns the record for (company, hash), or nil
	// when no such record exists.
	FindByContentHash(companyID, contentHash string) (*models.KnowledgeDocument, error)

	// ListDocuments returns a company's records, newest first.
	ListDocuments(companyID string) ([]*models.KnowledgeDocument, error)

	DeleteDocument(id string) error
	CountDocuments(companyID string) (int, error)

	// Tenants returns the distinct company ids that have metadata records.
	Tenants() ([]string, error)
}

// ChatStorage persists immutable conversation turns.
type ChatStorage interface {
	SaveMessage(msg *models.ChatMessage) error

	// SessionHistory returns up to limit most recent turns for
	// (company, session) in chronological order.
	SessionHistory(companyID, sessionID string, limit int) ([]*models.ChatMessage, error)

	// History returns up to limit most recent turns for the company,
	// optionally narrowed to one session, in chronological order.
	History(companyID, sessionID string, limit int) ([]*models.ChatMessage, error)

	// DeleteHistory removes a company's turns, optionally narrowed to one
	// session, and returns the number deleted.
	DeleteHistory(companyID, sessionID string) (int, error)
}

// StorageManager aggregates the metadata store interfaces
type StorageManager interface {
	DocumentStorage() DocumentStorage
	ChatStorage() ChatStorage
	Close() error
}
