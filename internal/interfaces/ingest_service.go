package interfaces

import (
	"context"

	"github.com/luminahr/knowledge/internal/models"
)

// UploadResult reports the outcome of a document upload.
type UploadResult struct {
	DocumentID     string   `json:"document_id"`
	Filename       string   `json:"filename"`
	ChunksCreated  int      `json:"chunks_created"`
	Duplicate      bool     `json:"duplicate"`
	StepsCompleted []string `json:"steps_completed"`
}

// DeleteResult reports both phases of a document deletion. Vector deletion
// is best-effort; metadata deletion proceeds regardless.
type DeleteResult struct {
	VectorsDeleted  bool `json:"vectors_deleted"`
	MetadataDeleted bool `json:"metadata_deleted"`
}

// IngestService runs the document ingestion pipeline: extract, chunk,
// embed, index, then commit metadata.
type IngestService interface {
	// Upload ingests one document for a tenant. Re-uploading identical
	// bytes is a no-op returning the existing record with Duplicate=true.
	Upload(ctx context.Context, companyID, uploadedBy, filename string, content []byte) (*UploadResult, error)

	// Delete removes a document's vectors (best-effort) and its metadata.
	Delete(ctx context.Context, companyID, documentID string) (*DeleteResult, error)

	// List returns the tenant's document records, newest first.
	List(ctx context.Context, companyID string) ([]*models.KnowledgeDocument, error)
}
