package documents

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
	"github.com/luminahr/knowledge/internal/services/chunker"
)

// Pipeline step names reported in upload results, in execution order.
const (
	stepFileReceived   = "file_received"
	stepDuplicateCheck = "duplicate_check"
	stepTextExtracted  = "text_extracted"
	stepChunksCreated  = "chunks_created"
	stepEmbeddings     = "embeddings_generated"
	stepVectorsStored  = "vectors_stored"
	stepMetadataSaved  = "metadata_saved"
)

// Extracted text shorter than this is treated as an empty document.
const minExtractedChars = 10

// Service runs the document ingestion pipeline. Metadata is committed
// only after the vector index confirms a durable write, so a metadata
// record always implies searchable vectors.
type Service struct {
	extractor  interfaces.TextExtractor
	embeddings interfaces.EmbeddingService
	index      interfaces.VectorIndex
	storage    interfaces.DocumentStorage
	config     *common.ChunkingConfig
	logger     arbor.ILogger
}

// NewService creates a new document ingestion service
func NewService(
	extractor interfaces.TextExtractor,
	embeddings interfaces.EmbeddingService,
	index interfaces.VectorIndex,
	storage interfaces.DocumentStorage,
	config *common.ChunkingConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		extractor:  extractor,
		embeddings: embeddings,
		index:      index,
		storage:    storage,
		config:     config,
		logger:     logger,
	}
}

// Upload ingests one document for a tenant. Identical bytes uploaded
// twice are a no-op; the existing record is returned with Duplicate=true.
func (s *Service) Upload(ctx context.Context, companyID, uploadedBy, filename string, content []byte) (*interfaces.UploadResult, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company ID is required")
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", models.ErrEmptyDocument)
	}

	fileType, err := models.DetectFileType(filename)
	if err != nil {
		return nil, err
	}

	steps := []string{stepFileReceived}

	// Duplicate gate: same bytes for the same tenant never re-ingest.
	contentHash := models.ContentHash(content)
	existing, err := s.storage.FindByContentHash(companyID, contentHash)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		s.logger.Info().
			Str("company_id", companyID).
			Str("document_id", existing.ID).
			Str("filename", filename).
			Msg("Duplicate upload, returning existing document")
		return &interfaces.UploadResult{
			DocumentID:     existing.ID,
			Filename:       existing.Filename,
			ChunksCreated:  existing.ChunkCount,
			Duplicate:      true,
			StepsCompleted: []string{stepDuplicateCheck},
		}, nil
	}
	steps = append(steps, stepDuplicateCheck)

	text, err := s.extractor.Extract(content, fileType)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(text) < minExtractedChars {
		return nil, fmt.Errorf("%w: extracted text too short", models.ErrEmptyDocument)
	}
	steps = append(steps, stepTextExtracted)

	chunks, err := chunker.Split(text, s.config.WindowWords, s.config.OverlapWords)
	if err != nil {
		return nil, fmt.Errorf("chunking failed: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced", models.ErrEmptyDocument)
	}
	steps = append(steps, stepChunksCreated)

	if err := s.index.EnsureCollection(ctx, companyID); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
	}

	vectors, err := s.embeddings.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	steps = append(steps, stepEmbeddings)

	documentID := common.NewDocumentID()
	points := make([]models.VectorPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = models.VectorPoint{
			ID:     common.NewPointID(),
			Vector: vectors[i],
			Payload: models.PointPayload{
				DocumentID:   documentID,
				DocumentName: filename,
				ChunkIndex:   i,
				Text:         chunk,
				CompanyID:    companyID,
			},
		}
	}

	if err := s.index.Upsert(ctx, companyID, points); err != nil {
		return nil, err
	}
	steps = append(steps, stepVectorsStored)

	doc := models.NewKnowledgeDocument(documentID, companyID, filename, fileType, content, len(chunks), uploadedBy)
	if err := s.storage.SaveDocument(doc); err != nil {
		// Vectors are already durable; the reconciler will sweep them up
		// if this record never lands.
		s.logger.Error().Err(err).
			Str("company_id", companyID).
			Str("document_id", documentID).
			Msg("Metadata commit failed after vector write")
		return nil, fmt.Errorf("metadata commit failed: %w", err)
	}
	steps = append(steps, stepMetadataSaved)

	s.logger.Info().
		Str("company_id", companyID).
		Str("document_id", documentID).
		Str("filename", filename).
		Int("chunks", len(chunks)).
		Msg("Document ingested")

	return &interfaces.UploadResult{
		DocumentID:     documentID,
		Filename:       filename,
		ChunksCreated:  len(chunks),
		Duplicate:      false,
		StepsCompleted: steps,
	}, nil
}

// Delete removes a document's vectors and metadata. Vector deletion is
// best-effort; a failure there leaves the vectors for the reconciler and
// still removes the metadata record.
func (s *Service) Delete(ctx context.Context, companyID, documentID string) (*interfaces.DeleteResult, error) {
	doc, err := s.storage.GetDocument(documentID)
	if err != nil {
		return nil, err
	}
	if doc.CompanyID != companyID {
		return nil, fmt.Errorf("document not found: %s", documentID)
	}

	result := &interfaces.DeleteResult{}

	if err := s.index.DeleteByDocument(ctx, companyID, documentID); err != nil {
		s.logger.Warn().Err(err).
			Str("company_id", companyID).
			Str("document_id", documentID).
			Msg("Vector deletion failed, orphans left for reconciler")
	} else {
		result.VectorsDeleted = true
	}

	if err := s.storage.DeleteDocument(documentID); err != nil {
		return result, fmt.Errorf("failed to delete document metadata: %w", err)
	}
	result.MetadataDeleted = true

	s.logger.Info().
		Str("company_id", companyID).
		Str("document_id", documentID).
		Bool("vectors_deleted", result.VectorsDeleted).
		Msg("Document deleted")

	return result, nil
}

// List returns the tenant's document records, newest first
func (s *Service) List(ctx context.Context, companyID string) ([]*models.KnowledgeDocument, error) {
	return s.storage.ListDocuments(companyID)
}

var _ interfaces.IngestService = (*Service)(nil)
